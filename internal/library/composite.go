package library

import "fmt"

// SubRecord is one provider-specific backing record of a composite.
type SubRecord struct {
	ID           int
	Source       string
	URL          string
	InternalID   string
	LastReleased Chapter
	LastConsumed Chapter
}

// Composite aggregates interchangeable sub-records, one of which is current.
// The record set is never empty.
type Composite struct {
	ID      int
	Status  Status
	records []SubRecord
	current int
}

// NewComposite builds a composite whose current record is currentID.
func NewComposite(id int, status Status, records []SubRecord, currentID int) (*Composite, error) {
	if len(records) == 0 {
		return nil, &InvariantViolationError{Reason: fmt.Sprintf("composite %d has no sub-records", id)}
	}
	seen := make(map[int]struct{}, len(records))
	current := -1
	for i, r := range records {
		if _, dup := seen[r.ID]; dup {
			return nil, &InvariantViolationError{Reason: fmt.Sprintf("composite %d lists sub-record %d twice", id, r.ID)}
		}
		seen[r.ID] = struct{}{}
		if r.ID == currentID {
			current = i
		}
	}
	if current < 0 {
		return nil, &InvariantViolationError{Reason: fmt.Sprintf("composite %d current sub-record %d is not in its set", id, currentID)}
	}
	return &Composite{
		ID:      id,
		Status:  status,
		records: append([]SubRecord(nil), records...),
		current: current,
	}, nil
}

// Current returns the authoritative sub-record.
func (c *Composite) Current() SubRecord {
	return c.records[c.current]
}

// Records returns a copy of the sub-records in stored order.
func (c *Composite) Records() []SubRecord {
	return append([]SubRecord(nil), c.records...)
}

// Len returns the number of sub-records.
func (c *Composite) Len() int {
	return len(c.records)
}

// Record looks up a sub-record by id.
func (c *Composite) Record(id int) (SubRecord, bool) {
	if i := c.index(id); i >= 0 {
		return c.records[i], true
	}
	return SubRecord{}, false
}

// SetCurrent marks the sub-record id as current.
func (c *Composite) SetCurrent(id int) error {
	i := c.index(id)
	if i < 0 {
		return &NotFoundError{Kind: "sub-record", ID: id}
	}
	c.current = i
	return nil
}

// Replace overwrites a stored sub-record with fresher data from the backend.
func (c *Composite) Replace(r SubRecord) error {
	i := c.index(r.ID)
	if i < 0 {
		return &NotFoundError{Kind: "sub-record", ID: r.ID}
	}
	c.records[i] = r
	return nil
}

// Remove drops a sub-record. Removing the last one is rejected; removing the
// current one promotes the first remaining record.
func (c *Composite) Remove(id int) error {
	i := c.index(id)
	if i < 0 {
		return &NotFoundError{Kind: "sub-record", ID: id}
	}
	if len(c.records) == 1 {
		return &InvariantViolationError{Reason: fmt.Sprintf("cannot remove sub-record %d, the last of composite %d", id, c.ID)}
	}
	currentID := c.records[c.current].ID
	c.records = append(c.records[:i], c.records[i+1:]...)
	if id == currentID {
		c.current = 0
		return nil
	}
	c.current = c.index(currentID)
	return nil
}

// Display returns the positions shown for the composite, which mirror the
// current sub-record.
func (c *Composite) Display() (released, consumed Chapter) {
	cur := c.Current()
	return cur.LastReleased, cur.LastConsumed
}

func (c *Composite) index(id int) int {
	for i, r := range c.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
