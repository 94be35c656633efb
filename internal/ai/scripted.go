package ai

// ScriptedWaveDef :
// One hard-coded wave definition, evaluated against every `ItemCompleted`
// event for a non-AI empire. `TriggerItems` firing is an OR with
// `TriggerCitizen`: either the completed iid is in the list, or the
// defender's total citizen count has reached the threshold.
type ScriptedWaveDef struct {
	ID             string
	TriggerItems   []string
	TriggerCitizen int
	Waves          []WaveSpec
}

// Fires :
// Whether this definition should trigger given that `completedIid` just
// finished and the defender now has `citizenCount` citizens.
func (d ScriptedWaveDef) Fires(completedIid string, citizenCount int) bool {
	for _, iid := range d.TriggerItems {
		if iid == completedIid {
			return true
		}
	}
	return d.TriggerCitizen > 0 && citizenCount >= d.TriggerCitizen
}

// fullyTriggered :
// Whether every iid in this definition's trigger list is present in
// `completed` — the stronger condition `SelectOverride` requires before
// preferring a scripted definition over a synthesized army.
func (d ScriptedWaveDef) fullyTriggered(completed map[string]struct{}) bool {
	if len(d.TriggerItems) == 0 {
		return false
	}
	for _, iid := range d.TriggerItems {
		if _, ok := completed[iid]; !ok {
			return false
		}
	}
	return true
}

// EvaluateTriggers :
// Returns every definition in `defs` that fires for this completion
// event, in the order they were defined.
func EvaluateTriggers(defs []ScriptedWaveDef, completedIid string, citizenCount int) []ScriptedWaveDef {
	var fired []ScriptedWaveDef
	for _, d := range defs {
		if d.Fires(completedIid, citizenCount) {
			fired = append(fired, d)
		}
	}
	return fired
}

// SelectOverride :
// When synthesizing an attack against a defender whose `completed` set
// fully satisfies one or more scripted definitions' item triggers, the
// last matching definition (in `defs` order) takes priority over
// synthesis, per spec.md §4.8.
func SelectOverride(defs []ScriptedWaveDef, completed map[string]struct{}) (ScriptedWaveDef, bool) {
	var last ScriptedWaveDef
	found := false
	for _, d := range defs {
		if d.fullyTriggered(completed) {
			last = d
			found = true
		}
	}
	return last, found
}
