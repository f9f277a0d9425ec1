package entities

// Change is a single key/value modification an effect carries
type Change struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TriggerSpec is authored trigger content on an item or effect.
// Specs with the same Trigger on one document share the first spec's Scope.
type TriggerSpec struct {
	Trigger  string `json:"trigger"`
	Scope    string `json:"scope,omitempty"`
	Language string `json:"language,omitempty"`
	Command  string `json:"command"`
}

// BeastformState is the revert snapshot stored on an active beastform effect
type BeastformState struct {
	Form       string   `json:"form"`
	Snapshot   Token    `json:"snapshot"`
	FeatureIDs []string `json:"featureIds,omitempty"`
	EffectIDs  []string `json:"effectIds,omitempty"`
}

// Effect is an active effect on an actor or an effect template on an item
type Effect struct {
	UUID      string          `json:"uuid"`
	Name      string          `json:"name"`
	Img       string          `json:"img,omitempty"`
	Origin    string          `json:"origin,omitempty"`
	Disabled  bool            `json:"disabled,omitempty"`
	Changes   []Change        `json:"changes,omitempty"`
	Triggers  []TriggerSpec   `json:"triggers,omitempty"`
	Beastform *BeastformState `json:"beastform,omitempty"`
}

// Clone returns a deep copy suitable for applying to another actor
func (e *Effect) Clone() *Effect {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Changes = append([]Change(nil), e.Changes...)
	cp.Triggers = append([]TriggerSpec(nil), e.Triggers...)
	if e.Beastform != nil {
		bf := *e.Beastform
		bf.FeatureIDs = append([]string(nil), e.Beastform.FeatureIDs...)
		bf.EffectIDs = append([]string(nil), e.Beastform.EffectIDs...)
		cp.Beastform = &bf
	}
	return &cp
}
