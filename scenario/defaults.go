package scenario

import (
	"fmt"
	"sync"

	c "github.com/giygas/antibiotic-advisor/clinical"
)

// CatchAllID is the lowest priority scenario, which always matches.
const CatchAllID = "empiric_catch_all"

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// DefaultTable returns the built-in scenario table. It is built once.
func DefaultTable() *Table {
	defaultTableOnce.Do(func() {
		t, err := NewBuilder().Register(DefaultScenarios()...).Build()
		if err != nil {
			panic(fmt.Sprintf("scenario: invalid default table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

func opt(reason string, drugs ...c.Drug) Option {
	return Option{Regimen: c.Of(drugs...), Reason: reason}
}

func atLeast(ctx Context, s c.Severity) bool {
	return ctx.Profile.SeverityLevel().Rank() >= s.Rank()
}

func has(ctx Context, site c.InfectionSite) bool {
	return ctx.Profile.HasSite(site)
}

// DefaultScenarios returns the built-in scenarios in declaration order.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			ID:          "cre_infection",
			Priority:    100,
			Description: "Carbapenem-resistant Enterobacterales",
			Matches:     func(ctx Context) bool { return ctx.Profile.Resistances.CRE },
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("CRE-confirmed: ceftazidime-avibactam retains activity against KPC producers", c.CeftazidimeAvibactam),
					Duration: "10-14 days",
					Alternatives: []Option{
						opt("polymyxin salvage therapy with infectious diseases input", c.Colistin),
						opt("glycylcycline option outside the bloodstream", c.Tigecycline),
					},
				}
			},
		},
		{
			ID:          "vre_infection",
			Priority:    95,
			Description: "Vancomycin-resistant Enterococcus",
			Matches:     func(ctx Context) bool { return ctx.Profile.Resistances.VRE },
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("VRE-confirmed: linezolid covers vancomycin-resistant enterococci", c.Linezolid),
					Duration: "10-14 days",
					Alternatives: []Option{
						opt("high-dose daptomycin for enterococcal bacteremia", c.Daptomycin),
						opt("tigecycline for intra-abdominal VRE", c.Tigecycline),
					},
				}
			},
		},
		{
			ID:          "mrsa_invasive",
			Priority:    92,
			Description: "Invasive or severe MRSA infection",
			Matches: func(ctx Context) bool {
				return ctx.Profile.Resistances.MRSA &&
					(has(ctx, c.SiteBloodstream) || has(ctx, c.SiteBoneJoint) || has(ctx, c.SiteCNS) || atLeast(ctx, c.SeveritySevere))
			},
			Generate: func(ctx Context) Plan {
				if ctx.Profile.Allergies.Vancomycin {
					return Plan{
						Primary:      opt("MRSA-confirmed invasive infection with vancomycin contraindicated: daptomycin", c.Daptomycin),
						Duration:     "at least 14 days from first negative blood culture",
						Alternatives: []Option{opt("linezolid when daptomycin is unsuitable", c.Linezolid)},
					}
				}
				return Plan{
					Primary:  opt("MRSA-confirmed invasive infection: vancomycin with trough or AUC monitoring", c.Vancomycin),
					Duration: "at least 14 days from first negative blood culture",
					Alternatives: []Option{
						opt("daptomycin for MRSA bacteremia", c.Daptomycin),
						opt("linezolid when glycopeptides are not tolerated", c.Linezolid),
					},
				}
			},
		},
		{
			ID:          "mrsa_pneumonia",
			Priority:    90,
			Description: "MRSA pneumonia",
			Matches: func(ctx Context) bool {
				return ctx.Profile.Resistances.MRSA && has(ctx, c.SiteRespiratory)
			},
			Generate: func(ctx Context) Plan {
				if ctx.Profile.Allergies.Vancomycin {
					return Plan{
						Primary:  opt("MRSA-confirmed pneumonia with vancomycin contraindicated: linezolid has good lung penetration", c.Linezolid),
						Duration: "7-14 days",
					}
				}
				return Plan{
					Primary:      opt("MRSA-confirmed pneumonia: vancomycin", c.Vancomycin),
					Duration:     "7-14 days",
					Alternatives: []Option{opt("linezolid has good lung penetration", c.Linezolid)},
				}
			},
		},
		{
			ID:          "mrsa_skin",
			Priority:    88,
			Description: "MRSA skin and soft tissue infection",
			Matches: func(ctx Context) bool {
				return ctx.Profile.Resistances.MRSA && has(ctx, c.SiteSkin)
			},
			Generate: func(ctx Context) Plan {
				if ctx.Profile.Allergies.Vancomycin {
					return Plan{
						Primary:  opt("MRSA-confirmed skin infection with vancomycin contraindicated: linezolid", c.Linezolid),
						Duration: "7-10 days",
						Alternatives: []Option{
							opt("daptomycin for complicated skin infection", c.Daptomycin),
							opt("oral doxycycline for step-down therapy", c.Doxycycline),
							opt("oral trimethoprim-sulfamethoxazole for step-down therapy", c.TrimethoprimSulfa),
						},
					}
				}
				return Plan{
					Primary:  opt("MRSA-confirmed skin infection: vancomycin", c.Vancomycin),
					Duration: "7-10 days",
					Alternatives: []Option{
						opt("linezolid with oral step-down option", c.Linezolid),
						opt("oral doxycycline for uncomplicated MRSA skin infection", c.Doxycycline),
						opt("oral trimethoprim-sulfamethoxazole for uncomplicated MRSA skin infection", c.TrimethoprimSulfa),
					},
				}
			},
		},
		{
			ID:          "esbl_infection",
			Priority:    85,
			Description: "ESBL-producing Enterobacterales",
			Matches:     func(ctx Context) bool { return ctx.Profile.Resistances.ESBL },
			Generate: func(ctx Context) Plan {
				plan := Plan{Duration: "7-14 days"}
				if atLeast(ctx, c.SeveritySevere) || has(ctx, c.SiteBloodstream) {
					plan.Primary = opt("ESBL-confirmed severe infection: meropenem", c.Meropenem)
					plan.Alternatives = []Option{opt("ertapenem once stable", c.Ertapenem)}
				} else {
					plan.Primary = opt("ESBL-confirmed: once-daily ertapenem", c.Ertapenem)
					plan.Alternatives = []Option{opt("meropenem if deteriorating", c.Meropenem)}
				}
				if has(ctx, c.SiteUrinary) {
					plan.Alternatives = append(plan.Alternatives, opt("oral fosfomycin for ESBL cystitis", c.Fosfomycin))
				}
				return plan
			},
		},
		{
			ID:          "pseudomonas_infection",
			Priority:    80,
			Description: "Pseudomonas aeruginosa",
			Matches:     func(ctx Context) bool { return ctx.Profile.Resistances.Pseudomonas },
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("Pseudomonas-confirmed: antipseudomonal cefepime", c.Cefepime),
					Duration: "10-14 days",
					Alternatives: []Option{
						opt("antipseudomonal piperacillin-tazobactam", c.PiperacillinTazobactam),
						opt("meropenem for resistant isolates", c.Meropenem),
						opt("oral ciprofloxacin for step-down therapy", c.Ciprofloxacin),
					},
				}
			},
		},
		{
			ID:          "severe_bloodstream",
			Priority:    75,
			Description: "Severe bloodstream infection or sepsis",
			Matches: func(ctx Context) bool {
				return has(ctx, c.SiteBloodstream) && atLeast(ctx, c.SeveritySevere)
			},
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("severe sepsis: broad gram-positive and gram-negative coverage", c.Vancomycin, c.PiperacillinTazobactam),
					Duration: "10-14 days; de-escalate on culture results",
					Alternatives: []Option{
						opt("cefepime-based broad coverage", c.Vancomycin, c.Cefepime),
						opt("carbapenem monotherapy for gram-negative sepsis", c.Meropenem),
					},
				}
			},
		},
		{
			ID:          "cns_infection",
			Priority:    74,
			Description: "Bacterial meningitis or CNS infection",
			Matches:     func(ctx Context) bool { return has(ctx, c.SiteCNS) },
			Generate: func(ctx Context) Plan {
				if ctx.Profile.Age >= 50 {
					return Plan{
						Primary:      opt("meningitis over 50 years: add ampicillin for Listeria", c.Ceftriaxone, c.Vancomycin, c.Ampicillin),
						Duration:     "10-14 days",
						Alternatives: []Option{opt("meropenem-based CNS coverage", c.Meropenem, c.Vancomycin)},
					}
				}
				return Plan{
					Primary:      opt("empiric meningitis coverage with CNS-penetrating agents", c.Ceftriaxone, c.Vancomycin),
					Duration:     "10-14 days",
					Alternatives: []Option{opt("meropenem-based CNS coverage", c.Meropenem, c.Vancomycin)},
				}
			},
		},
		{
			ID:          "bone_joint",
			Priority:    70,
			Description: "Osteomyelitis or septic arthritis",
			Matches:     func(ctx Context) bool { return has(ctx, c.SiteBoneJoint) },
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("bone and joint infection: anti-staphylococcal cefazolin", c.Cefazolin),
					Duration: "4-6 weeks",
					Alternatives: []Option{
						opt("vancomycin when MRSA cannot be excluded", c.Vancomycin),
						opt("clindamycin with good bone penetration", c.Clindamycin),
					},
				}
			},
		},
		{
			ID:          "hospital_acquired_pneumonia",
			Priority:    68,
			Description: "Hospital-acquired pneumonia",
			Matches: func(ctx Context) bool {
				return ctx.Profile.HospitalAcquired && has(ctx, c.SiteRespiratory)
			},
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("hospital-acquired pneumonia: antipseudomonal beta-lactam", c.PiperacillinTazobactam),
					Duration: "7 days",
					Alternatives: []Option{
						opt("cefepime for hospital-acquired pneumonia", c.Cefepime),
						opt("meropenem when ESBL risk is high", c.Meropenem),
					},
				}
			},
		},
		{
			ID:          "high_risk_empiric",
			Priority:    66,
			Description: "High resistance risk with moderate or severe infection",
			Matches: func(ctx Context) bool {
				return ctx.Resistance.RiskLevel.Rank() >= c.RiskHigh.Rank() && atLeast(ctx, c.SeverityModerate)
			},
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt(fmt.Sprintf("%s resistance risk: broad empiric coverage", ctx.Resistance.RiskLevel), c.PiperacillinTazobactam),
					Duration: "7-14 days; de-escalate on culture results",
					Alternatives: []Option{
						opt("cefepime for broad gram-negative coverage", c.Cefepime),
						opt("meropenem for multidrug-resistant organisms", c.Meropenem),
					},
				}
			},
		},
		{
			ID:          "severe_cap",
			Priority:    65,
			Description: "Severe community-acquired pneumonia",
			Matches: func(ctx Context) bool {
				return has(ctx, c.SiteRespiratory) && atLeast(ctx, c.SeveritySevere)
			},
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("severe pneumonia: beta-lactam plus macrolide for atypical coverage", c.Ceftriaxone, c.Azithromycin),
					Duration: "5-7 days",
					Alternatives: []Option{
						opt("respiratory fluoroquinolone monotherapy", c.Levofloxacin),
						opt("ampicillin-sulbactam plus macrolide", c.AmpicillinSulbactam, c.Azithromycin),
					},
				}
			},
		},
		{
			ID:          "pregnant_uti",
			Priority:    62,
			Description: "Urinary tract infection in pregnancy",
			Matches: func(ctx Context) bool {
				return ctx.Profile.Pregnancy.Pregnant && has(ctx, c.SiteUrinary)
			},
			Generate: func(ctx Context) Plan {
				if atLeast(ctx, c.SeverityModerate) {
					return Plan{
						Primary:  opt("pyelonephritis in pregnancy: parenteral ceftriaxone", c.Ceftriaxone),
						Duration: "10-14 days",
						Alternatives: []Option{
							opt("cefepime for resistant organisms", c.Cefepime),
							opt("aztreonam for beta-lactam allergy", c.Aztreonam),
						},
					}
				}
				plan := Plan{
					Primary:  opt("cystitis in pregnancy: pregnancy-safe cephalexin", c.Cephalexin),
					Duration: "7 days",
					Alternatives: []Option{
						opt("single-dose fosfomycin is pregnancy-safe", c.Fosfomycin),
						opt("amoxicillin-clavulanate is pregnancy-safe", c.AmoxicillinClavulanate),
					},
				}
				if !ctx.Profile.Pregnancy.FirstTrimesterPossible() && !ctx.Profile.Pregnancy.NearTermPossible() {
					plan.Alternatives = append(plan.Alternatives, opt("nitrofurantoin is acceptable in the second trimester", c.Nitrofurantoin))
				}
				return plan
			},
		},
		{
			ID:          "pregnancy_general",
			Priority:    60,
			Description: "Infection in pregnancy",
			Matches:     func(ctx Context) bool { return ctx.Profile.Pregnancy.Pregnant },
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("pregnancy: beta-lactams are the safest first choice", c.Amoxicillin),
					Duration: "5-7 days",
					Alternatives: []Option{
						opt("cephalexin is pregnancy-safe", c.Cephalexin),
						opt("azithromycin is pregnancy-safe", c.Azithromycin),
					},
				}
			},
		},
		{
			ID:          "complicated_uti",
			Priority:    58,
			Description: "Complicated urinary tract infection or pyelonephritis",
			Matches: func(ctx Context) bool {
				return has(ctx, c.SiteUrinary) && (atLeast(ctx, c.SeverityModerate) || ctx.Profile.HospitalAcquired)
			},
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("complicated urinary infection: ceftriaxone", c.Ceftriaxone),
					Duration: "7-14 days",
					Alternatives: []Option{
						opt("oral ciprofloxacin when susceptible", c.Ciprofloxacin),
						opt("piperacillin-tazobactam for hospital-acquired infection", c.PiperacillinTazobactam),
					},
				}
			},
		},
		{
			ID:          "intra_abdominal_severe",
			Priority:    57,
			Description: "Severe intra-abdominal infection",
			Matches: func(ctx Context) bool {
				return has(ctx, c.SiteIntraAbdominal) && atLeast(ctx, c.SeveritySevere)
			},
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("severe intra-abdominal infection: antipseudomonal and anaerobic coverage", c.PiperacillinTazobactam),
					Duration: "4-7 days after source control",
					Alternatives: []Option{
						opt("meropenem for resistant organisms", c.Meropenem),
						opt("cefepime plus metronidazole", c.Cefepime, c.Metronidazole),
					},
				}
			},
		},
		{
			ID:          "renal_impaired_uti",
			Priority:    56,
			Description: "Urinary tract infection with reduced renal function",
			Matches: func(ctx Context) bool {
				return has(ctx, c.SiteUrinary) && ctx.Profile.CrCl() < c.RenalModerateBelow
			},
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt(fmt.Sprintf("cystitis with CrCl %.1f mL/min: nitrofurantoin avoided", ctx.Profile.CrCl()), c.Cephalexin),
					Duration: "7 days",
					Alternatives: []Option{
						opt("single-dose fosfomycin needs no renal adjustment", c.Fosfomycin),
						opt("amoxicillin-clavulanate with renal dosing", c.AmoxicillinClavulanate),
					},
				}
			},
		},
		{
			ID:          "intra_abdominal",
			Priority:    54,
			Description: "Community-acquired intra-abdominal infection",
			Matches:     func(ctx Context) bool { return has(ctx, c.SiteIntraAbdominal) },
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("intra-abdominal infection: enteric and anaerobic coverage", c.Ceftriaxone, c.Metronidazole),
					Duration: "4-7 days after source control",
					Alternatives: []Option{
						opt("oral amoxicillin-clavulanate for mild infection", c.AmoxicillinClavulanate),
						opt("ciprofloxacin plus metronidazole", c.Ciprofloxacin, c.Metronidazole),
					},
				}
			},
		},
		{
			ID:          "immunocompromised",
			Priority:    52,
			Description: "Moderate or severe infection in an immunocompromised host",
			Matches: func(ctx Context) bool {
				return ctx.Profile.Comorbidities.Immunosuppression && atLeast(ctx, c.SeverityModerate)
			},
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("immunocompromised host: antipseudomonal cefepime", c.Cefepime),
					Duration: "until afebrile and clinically stable; at least 7 days",
					Alternatives: []Option{
						opt("piperacillin-tazobactam", c.PiperacillinTazobactam),
						opt("meropenem for suspected resistant organisms", c.Meropenem),
					},
				}
			},
		},
		{
			ID:          "cap_comorbid",
			Priority:    50,
			Description: "Community-acquired pneumonia with comorbidities",
			Matches: func(ctx Context) bool {
				p := ctx.Profile
				return has(ctx, c.SiteRespiratory) && (p.Comorbidities.Count() > 0 || p.IsGeriatric() || p.RecentAntibiotics)
			},
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("pneumonia with comorbidities: beta-lactam plus macrolide", c.AmoxicillinClavulanate, c.Azithromycin),
					Duration: "5-7 days",
					Alternatives: []Option{
						opt("respiratory fluoroquinolone monotherapy", c.Levofloxacin),
						opt("cefuroxime plus doxycycline", c.Cefuroxime, c.Doxycycline),
					},
				}
			},
		},
		{
			ID:          "cap_outpatient",
			Priority:    45,
			Description: "Community-acquired pneumonia, healthy outpatient",
			Matches:     func(ctx Context) bool { return has(ctx, c.SiteRespiratory) },
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("healthy outpatient pneumonia: high-dose amoxicillin", c.Amoxicillin),
					Duration: "5 days",
					Alternatives: []Option{
						opt("doxycycline for atypical coverage", c.Doxycycline),
						opt("azithromycin where pneumococcal macrolide resistance is low", c.Azithromycin),
					},
				}
			},
		},
		{
			ID:          "uncomplicated_uti",
			Priority:    40,
			Description: "Uncomplicated cystitis",
			Matches:     func(ctx Context) bool { return has(ctx, c.SiteUrinary) },
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("uncomplicated cystitis: nitrofurantoin", c.Nitrofurantoin),
					Duration: "5 days",
					Alternatives: []Option{
						opt("single-dose fosfomycin", c.Fosfomycin),
						opt("trimethoprim-sulfamethoxazole where local resistance is below 20%", c.TrimethoprimSulfa),
					},
				}
			},
		},
		{
			ID:          "skin_moderate",
			Priority:    38,
			Description: "Moderate or severe skin and soft tissue infection",
			Matches: func(ctx Context) bool {
				return has(ctx, c.SiteSkin) && atLeast(ctx, c.SeverityModerate)
			},
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("cellulitis requiring parenteral therapy: cefazolin", c.Cefazolin),
					Duration: "5-10 days",
					Alternatives: []Option{
						opt("clindamycin for beta-lactam allergy", c.Clindamycin),
						opt("vancomycin when MRSA is suspected", c.Vancomycin),
					},
				}
			},
		},
		{
			ID:          "skin_mild",
			Priority:    35,
			Description: "Mild skin and soft tissue infection",
			Matches:     func(ctx Context) bool { return has(ctx, c.SiteSkin) },
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("uncomplicated cellulitis: streptococcal and MSSA coverage", c.Cephalexin),
					Duration: "5-7 days",
					Alternatives: []Option{
						opt("dicloxacillin for MSSA", c.Dicloxacillin),
						opt("clindamycin for beta-lactam allergy", c.Clindamycin),
					},
				}
			},
		},
		{
			ID:          "ent_infection",
			Priority:    30,
			Description: "Otitis, sinusitis or pharyngitis",
			Matches:     func(ctx Context) bool { return has(ctx, c.SiteENT) },
			Generate: func(ctx Context) Plan {
				return Plan{
					Primary:  opt("upper respiratory infection: amoxicillin", c.Amoxicillin),
					Duration: "5-10 days",
					Alternatives: []Option{
						opt("amoxicillin-clavulanate for treatment failure", c.AmoxicillinClavulanate),
						opt("doxycycline for beta-lactam allergy", c.Doxycycline),
					},
				}
			},
		},
		{
			ID:          CatchAllID,
			Priority:    1,
			Description: "Empiric therapy when no specific scenario applies",
			Matches:     func(Context) bool { return true },
			Generate: func(ctx Context) Plan {
				if atLeast(ctx, c.SeveritySevere) {
					return Plan{
						Primary:  opt("severe infection of unclear source: broad empiric coverage", c.PiperacillinTazobactam),
						Duration: "7 days; reassess at 48-72 hours",
						Alternatives: []Option{
							opt("meropenem for broad coverage", c.Meropenem),
							opt("cefepime plus metronidazole", c.Cefepime, c.Metronidazole),
						},
					}
				}
				return Plan{
					Primary:  opt("empiric therapy: broad-spectrum oral beta-lactam", c.AmoxicillinClavulanate),
					Duration: "7 days; reassess at 48-72 hours",
					Alternatives: []Option{
						opt("doxycycline for beta-lactam allergy", c.Doxycycline),
						opt("levofloxacin when oral beta-lactams are unsuitable", c.Levofloxacin),
					},
				}
			},
		},
	}
}
