package entities

// SeedValue is one historical value of a seeded variable.
type SeedValue struct {
	Value         string
	EffectiveFrom string
}

// SeedVariable is a built-in variable loaded by `legis init --seed`.
// Values are listed oldest first.
type SeedVariable struct {
	Key    string
	Name   string
	Type   ValueType
	Unit   string
	Values []SeedValue
}

// SeedPoint is a built-in update point linked to a seeded variable.
type SeedPoint struct {
	TreeKey         string
	TreeName        string
	DataPointName   string
	Criticality     Criticality
	UpdateCategory  string
	VariableKey     string
	AutoUpdateable  bool
	VerificationURL string
}

// DefaultVariables are the Romanian fiscal and labor values known at seed time.
var DefaultVariables = []SeedVariable{
	{
		Key: "salary_minim_brut", Name: "Salariul minim brut pe economie", Type: ValueNumeric, Unit: "RON",
		Values: []SeedValue{{"3300", "2024-01-01"}, {"3700", "2025-01-01"}},
	},
	{
		Key: "tva_standard", Name: "Cota standard TVA", Type: ValuePercentage,
		Values: []SeedValue{{"19", "2017-01-01"}},
	},
	{
		Key: "tva_redus", Name: "Cota redusa TVA", Type: ValuePercentage,
		Values: []SeedValue{{"9", "2017-01-01"}},
	},
	{
		Key: "tva_super_redus", Name: "Cota super-redusa TVA", Type: ValuePercentage,
		Values: []SeedValue{{"5", "2017-01-01"}},
	},
	{
		Key: "prag_tva", Name: "Plafon de inregistrare in scopuri de TVA", Type: ValueNumeric, Unit: "RON",
		Values: []SeedValue{{"300000", "2021-01-01"}},
	},
	{
		Key: "prag_split_tva", Name: "Plafon TVA la incasare", Type: ValueNumeric, Unit: "RON",
		Values: []SeedValue{{"15000", "2021-01-01"}},
	},
	{
		Key: "impozit_micro_1", Name: "Impozit microintreprindere (cu salariat)", Type: ValuePercentage,
		Values: []SeedValue{{"1", "2023-01-01"}},
	},
	{
		Key: "impozit_micro_3", Name: "Impozit microintreprindere (fara salariat)", Type: ValuePercentage,
		Values: []SeedValue{{"3", "2023-01-01"}},
	},
	{
		Key: "plafon_micro", Name: "Plafon venituri microintreprindere", Type: ValueNumeric, Unit: "EUR",
		Values: []SeedValue{{"500000", "2023-01-01"}},
	},
	{
		Key: "cas_pfa", Name: "Contributia de asigurari sociale (CAS)", Type: ValuePercentage,
		Values: []SeedValue{{"25", "2018-01-01"}},
	},
	{
		Key: "cass_pfa", Name: "Contributia de asigurari sociale de sanatate (CASS)", Type: ValuePercentage,
		Values: []SeedValue{{"10", "2018-01-01"}},
	},
	{
		Key: "impozit_venit", Name: "Impozit pe venit", Type: ValuePercentage,
		Values: []SeedValue{{"10", "2018-01-01"}},
	},
	{
		Key: "impozit_profit", Name: "Impozit pe profit", Type: ValuePercentage,
		Values: []SeedValue{{"16", "2005-01-01"}},
	},
	{
		Key: "termen_declaratie_unica", Name: "Termen depunere Declaratia unica", Type: ValueDate,
		Values: []SeedValue{{"2025-05-26", "2025-01-01"}},
	},
}

// DefaultPoints are the update points seeded alongside DefaultVariables.
var DefaultPoints = []SeedPoint{
	{
		TreeKey: "salarizare", TreeName: "Salarizare si contracte de munca", DataPointName: "Salariul minim brut",
		Criticality: CriticalityCritical, UpdateCategory: "labor-law", VariableKey: "salary_minim_brut",
		VerificationURL: "https://legislatie.just.ro",
	},
	{
		TreeKey: "tva", TreeName: "Inregistrare in scopuri de TVA", DataPointName: "Cota standard TVA",
		Criticality: CriticalityHigh, UpdateCategory: "fiscal", VariableKey: "tva_standard",
		VerificationURL: "https://static.anaf.ro/static/10/Anaf/legislatie/Cod_fiscal_norme_2023.htm",
	},
	{
		TreeKey: "tva", TreeName: "Inregistrare in scopuri de TVA", DataPointName: "Plafon de inregistrare TVA",
		Criticality: CriticalityHigh, UpdateCategory: "fiscal", VariableKey: "prag_tva",
	},
	{
		TreeKey: "microintreprindere", TreeName: "Regim microintreprindere", DataPointName: "Plafon venituri micro",
		Criticality: CriticalityMedium, UpdateCategory: "fiscal", VariableKey: "plafon_micro",
	},
	{
		TreeKey: "pfa", TreeName: "Contributii PFA", DataPointName: "Cota CAS",
		Criticality: CriticalityMedium, UpdateCategory: "social-contributions", VariableKey: "cas_pfa",
	},
	{
		TreeKey: "pfa", TreeName: "Contributii PFA", DataPointName: "Cota CASS",
		Criticality: CriticalityMedium, UpdateCategory: "social-contributions", VariableKey: "cass_pfa",
	},
	{
		TreeKey: "pfa", TreeName: "Contributii PFA", DataPointName: "Termen Declaratia unica",
		Criticality: CriticalityCritical, UpdateCategory: "deadlines", VariableKey: "termen_declaratie_unica",
		AutoUpdateable: true, VerificationURL: "https://www.anaf.ro",
	},
	{
		TreeKey: "pfa", TreeName: "Contributii PFA", DataPointName: "Plafoane CASS pe venituri din activitati independente",
		Criticality: CriticalityLow, UpdateCategory: "social-contributions",
	},
}
