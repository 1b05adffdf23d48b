package workorder

import "fmt"

// Deletion guards. The engine never deletes reference entities; it only
// reports whether a deletion precondition holds over the snapshot it is
// given.

// CanDeleteMachine reports whether a machine may be deleted: no order,
// open or closed, may reference it.
func CanDeleteMachine(machineID string, orders []WorkOrder) error {
	count := 0
	for _, o := range orders {
		if o.MachineID == machineID {
			count++
		}
	}
	if count > 0 {
		return fmt.Errorf("machine %s has %d work orders attached", machineID, count)
	}
	return nil
}

// CanDeleteUser reports whether a user may be deleted: the user must
// have no assigned orders that are still open.
func CanDeleteUser(userID string, orders []WorkOrder) error {
	open := 0
	for _, o := range orders {
		if o.AssignedTo == userID && !o.Status.IsTerminal() {
			open++
		}
	}
	if open > 0 {
		return fmt.Errorf("user %s has %d open assigned work orders", userID, open)
	}
	return nil
}

// CanDeleteDepartment reports whether a department may be deleted: no
// machine may still belong to it.
func CanDeleteDepartment(departmentID string, machineDepartments map[string]string) error {
	count := 0
	for _, dept := range machineDepartments {
		if dept == departmentID {
			count++
		}
	}
	if count > 0 {
		return fmt.Errorf("department %s still has %d machines", departmentID, count)
	}
	return nil
}
