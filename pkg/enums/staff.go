package enums

// StaffRole is carried on operator access tokens.
type StaffRole string

const (
	// StaffRoleOperator may correct billing plans.
	StaffRoleOperator StaffRole = "operator"
	// StaffRoleSupport may read snapshot history but not change it.
	StaffRoleSupport StaffRole = "support"
)

var staffRoles = set[StaffRole]{StaffRoleOperator, StaffRoleSupport}

func (r StaffRole) String() string { return string(r) }
func (r StaffRole) IsValid() bool  { return staffRoles.has(r) }

func ParseStaffRole(value string) (StaffRole, error) {
	return staffRoles.parse("staff role", value)
}
