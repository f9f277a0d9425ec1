package entities

// TableResult is one row of a roll table. A row with TableID set draws again
// from the referenced table.
type TableResult struct {
	Low     int    `json:"low"`
	High    int    `json:"high"`
	Text    string `json:"text"`
	TableID string `json:"tableId,omitempty"`
}

// Matches reports whether roll lands in the row's range
func (r TableResult) Matches(roll int) bool {
	return roll >= r.Low && roll <= r.High
}

// RollTable is a formula and the rows its total selects from
type RollTable struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Formula string        `json:"formula"`
	Results []TableResult `json:"results"`
}

// Result returns the row for roll
func (t *RollTable) Result(roll int) (TableResult, bool) {
	for _, r := range t.Results {
		if r.Matches(roll) {
			return r, true
		}
	}
	return TableResult{}, false
}
