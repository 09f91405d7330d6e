package models

// Classification partitions a dataset's columns by semantic type. Each list
// keeps dataset column order.
type Classification struct {
	Numeric      []string `json:"numeric"`
	Temporal     []string `json:"temporal"`
	Categorical  []string `json:"categorical"`
	// Unclassified holds columns that fit no group, such as booleans.
	Unclassified []string `json:"unclassified"`
	// Empty names the all-missing columns; they also appear in exactly one
	// of the groups above according to the empty column policy.
	Empty        []string `json:"empty"`
}

// ColumnType returns the group name a column was assigned to.
func (c Classification) ColumnType(name string) string {
	switch {
	case contains(c.Numeric, name):
		return "numeric"
	case contains(c.Temporal, name):
		return "datetime"
	case contains(c.Categorical, name):
		return "categorical"
	case contains(c.Unclassified, name):
		return "unclassified"
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
