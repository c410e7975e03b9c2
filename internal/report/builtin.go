package report

import "fmt"

// Table names the builtin specifications load matched files under.
const (
	TablePaiements     = "paiements"
	TableDecisions     = "decisions"
	TableBeneficiaires = "beneficiaires"
)

// Builtin report names.
const (
	SuiviPaiements     = "suivi_paiements"
	SituationProgramme = "situation_programme"
)

// BuiltinRegistry builds the registry of the standard ledger reports.
func BuiltinRegistry() (*Registry, error) {
	suivi, err := suiviPaiements()
	if err != nil {
		return nil, fmt.Errorf("builtin registry: %w", err)
	}
	situation, err := situationProgramme()
	if err != nil {
		return nil, fmt.Errorf("builtin registry: %w", err)
	}
	return NewRegistry(suivi, situation)
}

// suiviPaiements is the monthly payment-monitoring report: payment journal
// crossed with the decision journal, grouped by geography and tranche.
func suiviPaiements() (*Specification, error) {
	paiements, err := NewRequiredFile(
		"journal_paiements",
		`^journal_paiements__.+_\d{2}\.\d{2}\.\d{4}.*\.xlsx$`,
		"Journal_paiements__Agence_WILAYA_JJ.MM.AAAA_CODE.xlsx",
		TablePaiements,
	)
	if err != nil {
		return nil, err
	}
	decisions, err := NewRequiredFile(
		"journal_decisions",
		`^journal_decisions__.+_\d{2}\.\d{2}\.\d{4}.*\.xlsx$`,
		"Journal_decisions__Agence_WILAYA_JJ.MM.AAAA_CODE.xlsx",
		TableDecisions,
	)
	if err != nil {
		return nil, err
	}
	spec, err := NewSpecification(
		SuiviPaiements,
		"Suivi des paiements",
		"paiements",
		"Etat mensuel des ordres de versement par wilaya, commune et tranche.",
		"suivi_paiements_{month}_{year}.xlsx",
		[]RequiredFile{paiements, decisions},
		[]Query{
			{
				Name: "overview_by_commune",
				SQL: `SELECT wilaya, commune, COUNT(*) AS nb_ov, SUM(montant) AS total_verse
FROM paiements
WHERE strftime('%m', date_paiement) = '{month}'
  AND strftime('%Y', date_paiement) = '{year}'
GROUP BY wilaya, commune
ORDER BY wilaya, commune`,
			},
			{
				Name: "totals_by_wilaya",
				SQL: `SELECT wilaya, COUNT(*) AS nb_ov, SUM(montant) AS total_verse
FROM paiements
WHERE strftime('%Y', date_paiement) = '{year}'
GROUP BY wilaya
ORDER BY wilaya`,
			},
			{
				Name: "tranche_breakdown",
				SQL: `SELECT tranche, COUNT(*) AS nb_ov, SUM(montant) AS total_verse
FROM paiements
WHERE wilaya = '{wilaya}'
GROUP BY tranche
ORDER BY tranche`,
			},
			{
				Name: "paiements_sans_decision",
				SQL: `SELECT p.numero_ov, p.beneficiaire, p.wilaya, p.commune, p.montant
FROM paiements p
LEFT JOIN decisions d ON p.numero_decision = d.numero_decision
WHERE d.numero_decision IS NULL
ORDER BY p.wilaya, p.commune, p.numero_ov`,
			},
		},
	)
	if err != nil {
		return nil, err
	}
	spec.Generator = "classeur_mensuel"
	return spec, nil
}

// situationProgramme is the program-status report: decisions against the
// beneficiary roll, by sous-programme.
func situationProgramme() (*Specification, error) {
	decisions, err := NewRequiredFile(
		"journal_decisions",
		`^journal_decisions__.+_\d{2}\.\d{2}\.\d{4}.*\.xlsx$`,
		"Journal_decisions__Agence_WILAYA_JJ.MM.AAAA_CODE.xlsx",
		TableDecisions,
	)
	if err != nil {
		return nil, err
	}
	beneficiaires, err := NewRequiredFile(
		"liste_beneficiaires",
		`^liste_beneficiaires__.+\.xlsx$`,
		"Liste_beneficiaires__WILAYA_CODE.xlsx",
		TableBeneficiaires,
	)
	if err != nil {
		return nil, err
	}
	spec, err := NewSpecification(
		SituationProgramme,
		"Situation des sous-programmes",
		"programmes",
		"Consommation des decisions d'aide par sous-programme et wilaya.",
		"situation_programme_{year}.xlsx",
		[]RequiredFile{decisions, beneficiaires},
		[]Query{
			{
				Name: "decisions_by_sous_programme",
				SQL: `SELECT sous_programme, COUNT(*) AS nb_decisions, SUM(montant_aide) AS total_aide
FROM decisions
WHERE strftime('%Y', date_decision) = '{year}'
GROUP BY sous_programme
ORDER BY sous_programme`,
			},
			{
				Name: "beneficiaires_sans_decision",
				SQL: `SELECT b.nin, b.nom, b.prenom, b.wilaya, b.commune
FROM beneficiaires b
LEFT JOIN decisions d ON b.nin = d.nin
WHERE d.nin IS NULL
ORDER BY b.wilaya, b.commune, b.nin`,
			},
			{
				Name: "couverture_by_wilaya",
				SQL: `SELECT b.wilaya,
       COUNT(DISTINCT b.nin) AS nb_beneficiaires,
       COUNT(DISTINCT d.nin) AS nb_decides
FROM beneficiaires b
LEFT JOIN decisions d ON b.nin = d.nin
GROUP BY b.wilaya
ORDER BY b.wilaya`,
			},
		},
	)
	if err != nil {
		return nil, err
	}
	spec.Generator = "classeur_annuel"
	return spec, nil
}
