package domain

// Spending categories known to the categorizer.
const (
	CategorySalaries             = "Salaries"
	CategoryCloudServices        = "Cloud Services"
	CategorySoftware             = "Software"
	CategoryMarketing            = "Marketing"
	CategoryOffice               = "Office"
	CategoryProfessionalServices = "Professional Services"
	CategoryHR                   = "HR"
	CategoryContractors          = "Contractors"
	CategoryOperations           = "Operations"
	CategoryRevenue              = "Revenue"
)

// Categories is the fixed category vocabulary in declaration order.
var Categories = []string{
	CategorySalaries,
	CategoryCloudServices,
	CategorySoftware,
	CategoryMarketing,
	CategoryOffice,
	CategoryProfessionalServices,
	CategoryHR,
	CategoryContractors,
	CategoryOperations,
	CategoryRevenue,
}

// IsKnownCategory reports whether name belongs to the category vocabulary.
func IsKnownCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
