package model

// GroupBookingAggregate owns the child JobOffers that share a parent booking.
// It is derived from the store on demand rather than persisted as its own row.
type GroupBookingAggregate struct {
	ParentBookingID string
	Children        []JobOffer
}

// NewGroupBookingAggregate groups children under their shared booking ID.
// Children not belonging to bookingID are ignored.
func NewGroupBookingAggregate(bookingID string, children []JobOffer) *GroupBookingAggregate {
	agg := &GroupBookingAggregate{ParentBookingID: bookingID}
	for _, child := range children {
		if child.ParentBookingID == bookingID {
			agg.Children = append(agg.Children, child)
		}
	}
	return agg
}

// AssignedCount returns how many children have reached Assigned or a later
// non-cancelled state.
func (g *GroupBookingAggregate) AssignedCount() int {
	count := 0
	for i := range g.Children {
		if g.Children[i].Staffed() {
			count++
		}
	}
	return count
}

// TotalGroupSize returns the declared group size, falling back to the child
// count when the children predate the group-size column.
func (g *GroupBookingAggregate) TotalGroupSize() int {
	for i := range g.Children {
		if g.Children[i].TotalGroupSize > 0 {
			return g.Children[i].TotalGroupSize
		}
	}
	return len(g.Children)
}

// IsFullyStaffed reports whether every child is Assigned, InProgress or
// Completed. A booking with a cancelled-and-replaced child is not fully
// staffed until the replacement is accepted.
func (g *GroupBookingAggregate) IsFullyStaffed() bool {
	if len(g.Children) == 0 {
		return false
	}
	active := 0
	for i := range g.Children {
		if g.Children[i].Status == StatusCancelled {
			continue
		}
		if !g.Children[i].Staffed() {
			return false
		}
		active++
	}
	return active >= g.TotalGroupSize()
}
