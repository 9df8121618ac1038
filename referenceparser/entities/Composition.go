package entities

// Composition is one row of the BDPM compositions file linking a drug code to a substance.
type Composition struct {
	DrugCode              int    `json:"drugCode"`
	ElementPharmaceutique string `json:"elementPharmaceutique"`
	CodeSubstance         int    `json:"codeSubstance"`
	DenominationSubstance string `json:"denominationSubstance"`
	Dosage                string `json:"dosage"`
	NatureComposant       string `json:"natureComposant"`
}
