package model

// Category is the accounting nature of a fiscal operation.
// The set is closed: the classifier collaborator must answer with one of
// these values and anything else is coerced to CategoryOther.
type Category string

const (
	CategoryRawMaterial    Category = "Compra de Matéria-Prima"
	CategoryOfficeSupplies Category = "Compra de Material de Escritório"
	CategoryMaintenance    Category = "Despesa com Manutenção e Reparos"
	CategoryMarketing      Category = "Despesa com Marketing e Publicidade"
	CategoryFixedAsset     Category = "Aquisição de Ativo Imobilizado"
	CategorySale           Category = "Venda de Produto Acabado"
	CategoryOther          Category = "Outros"
)

// CostCenter is the cost center a document is charged to
type CostCenter string

const (
	CostCenterProduction     CostCenter = "PRODUÇÃO"
	CostCenterAdministrative CostCenter = "ADMINISTRATIVO"
	CostCenterMaintenance    CostCenter = "MANUTENÇÃO"
	CostCenterMarketing      CostCenter = "MARKETING"
	CostCenterSales          CostCenter = "VENDAS"
	CostCenterIT             CostCenter = "TI"
)

// Classification is the result of the external classifier collaborator.
// The pipeline treats it as opaque data to persist.
type Classification struct {
	Category   Category   `json:"categoria"`
	CostCenter CostCenter `json:"centro_de_custo"`
}

var validCategories = map[Category]bool{
	CategoryRawMaterial:    true,
	CategoryOfficeSupplies: true,
	CategoryMaintenance:    true,
	CategoryMarketing:      true,
	CategoryFixedAsset:     true,
	CategorySale:           true,
	CategoryOther:          true,
}

var validCostCenters = map[CostCenter]bool{
	CostCenterProduction:     true,
	CostCenterAdministrative: true,
	CostCenterMaintenance:    true,
	CostCenterMarketing:      true,
	CostCenterSales:          true,
	CostCenterIT:             true,
}

// Normalize coerces out-of-vocabulary values to the fallback members of
// each closed set and reports whether any coercion happened.
func (c *Classification) Normalize() bool {
	coerced := false
	if !validCategories[c.Category] {
		c.Category = CategoryOther
		coerced = true
	}
	if !validCostCenters[c.CostCenter] {
		c.CostCenter = CostCenterAdministrative
		coerced = true
	}
	return coerced
}
