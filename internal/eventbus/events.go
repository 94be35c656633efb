package eventbus

// ItemCompletedEvent :
// Emitted by the empire engine whenever a building or knowledge item's
// remaining effort reaches zero. The world loop (which hands it on to the
// AI opponent's scripted-wave logic) and the stats package's timeline
// both subscribe to `ItemCompleted`.
type ItemCompletedEvent struct {
	EmpireUID string
	Iid       string
}

// AttackPhaseChangedEvent :
// Emitted by the attack engine on every phase transition.
type AttackPhaseChangedEvent struct {
	AttackID string
	From     string
	To       string
}

// BattleStartRequestedEvent :
// Emitted by the attack engine when an attack's siege timer reaches
// zero. Nothing in this core subscribes to it: the world loop
// instantiates battle runtimes from the attacks the attack engine's
// StepAll returns.
type BattleStartRequestedEvent struct {
	AttackID    string
	AttackerUID string
	DefenderUID string
	ArmyAid     string
}

// BattleFinishedEvent :
// Emitted by the world loop once a battle runtime's `tick` reports
// `IsFinished`. Consumed by the AI opponent (to update its adaptation
// window) and by the stats timeline; the world loop moves the Attack to
// `FINISHED` with a direct call to the attack engine.
type BattleFinishedEvent struct {
	BattleID    string
	AttackID    string
	DefenderWon bool
}
