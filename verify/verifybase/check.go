package verifybase

// CheckName names a structural check.
type CheckName string

const (
	ColumnsMatch                 CheckName = "columns_match"
	NumColumnsMatch              CheckName = "num_columns_match"
	DataTypesMatch               CheckName = "data_types_match"
	RowCountMatch                CheckName = "row_count_match"
	DataIntegrity                CheckName = "data_integrity"
	PrimaryKeyConsistency        CheckName = "primary_key_consistency"
	NullValuesConsistency        CheckName = "null_values_consistency"
	RangeDistributionConsistency CheckName = "range_distribution_consistency"
	OrderOfRows                  CheckName = "order_of_rows"
	DuplicateRows                CheckName = "duplicate_rows"
)

// CheckNames lists every check in report order.
var CheckNames = []CheckName{
	ColumnsMatch,
	NumColumnsMatch,
	DataTypesMatch,
	RowCountMatch,
	DataIntegrity,
	PrimaryKeyConsistency,
	NullValuesConsistency,
	RangeDistributionConsistency,
	OrderOfRows,
	DuplicateRows,
}

type Check struct {
	Name CheckName
	OK   bool
}

// Checks is an ordered mapping of check name to outcome.
type Checks []Check

func (c Checks) Get(name CheckName) (ok bool, found bool) {
	for _, check := range c {
		if check.Name == name {
			return check.OK, true
		}
	}
	return false, false
}

func (c Checks) AllOK() bool {
	for _, check := range c {
		if !check.OK {
			return false
		}
	}
	return true
}
