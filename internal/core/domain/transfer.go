package domain

const (
	ReasonCallerNotPermitted = "caller not permitted to transfer"
	ReasonTargetNotPermitted = "target role not permitted"
	ReasonTargetNotFound     = "target identity not found"
)

var (
	transferSources = map[Role]bool{RoleManufacturer: true, RoleSeller: true}
	transferTargets = map[Role]bool{RoleSeller: true, RoleCustomer: true}
)

// AuthorizeTransferSource reports whether callerRole may start a transfer at
// all, before the target is known.
func AuthorizeTransferSource(callerRole Role) error {
	if !transferSources[callerRole] {
		return &DenyError{Reason: ReasonCallerNotPermitted}
	}
	return nil
}

// AuthorizeTransfer gates the next custody hop. It only looks at roles; the
// target's existence is checked against the Identity Store by the caller
// before any ledger write, and the ledger owns the custody history.
func AuthorizeTransfer(callerRole, targetRole Role) error {
	if err := AuthorizeTransferSource(callerRole); err != nil {
		return err
	}
	if !transferTargets[targetRole] {
		return &DenyError{Reason: ReasonTargetNotPermitted + ": expected Seller or Customer, got " + string(targetRole)}
	}
	return nil
}
