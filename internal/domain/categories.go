package domain

// Category catalogs. The lists mirror what the web forms offer; the API
// accepts free text but the cash-flow report only classifies rows whose
// category matches one of these groups.

// IncomeCategories are the operating income rubros.
var IncomeCategories = []string{
	"Instalaciones completas",
	"Mensualidades del sistema",
	"Talleres o capacitaciones",
	"Creación de páginas",
	"Hosting y mantenimiento",
	"Servicios de branding o redes sociales",
	"Colaboraciones externas",
	"Comisiones por referidos o integraciones",
	"Reembolsos o recuperaciones",
	"Bonos o incentivos recibidos",
}

// ExpenseCategories are the operating expense rubros.
var ExpenseCategories = []string{
	"Hosting, dominios, licencias de software",
	"Sueldos o comisiones del equipo",
	"Honorarios de programadores o diseñadores externos",
	"Campañas pagadas",
	"Material gráfico o contenido audiovisual",
	"Contabilidad, facturación y herramientas financieras",
	"Internet, telefonía y servicios básicos",
	"Viajes, comidas de trabajo, eventos",
	"Papelería, mantenimiento o compras menores",
	"IVA, ISR y retenciones",
	"Cuotas y trámites legales",
}

// DepreciationCategories are non-monetary expenses added back for EBITDA.
var DepreciationCategories = []string{
	"Depreciaciones y amortizaciones",
}

// FinancingCategories count signed into the financing delta of the summary:
// income rows add, expense rows subtract.
var FinancingCategories = []string{
	"Préstamos recibidos",
	"Pagos de préstamos e intereses",
	"Aportaciones de socios",
	"Retiros de socios o dividendos",
}

// CapexCategories count expense rows only; income rows are ignored.
var CapexCategories = []string{
	"Equipo de cómputo y oficina",
	"Licencias perpetuas y activos intangibles",
}

// CategoryRecurringCharge is the category stamped on pending charges the
// billing engine seeds for recurring clients.
const CategoryRecurringCharge = "Mensualidades del sistema"

// InCategoryGroup reports whether category belongs to the given group.
func InCategoryGroup(group []string, category string) bool {
	for _, c := range group {
		if c == category {
			return true
		}
	}
	return false
}
