package empire

import "fmt"

// ErrUnknownArmy :
// A request named an `aid` the empire does not own.
var ErrUnknownArmy = fmt.Errorf("unknown army id")

// ErrUnknownWave :
// A request named a wave number outside an army's current wave list.
var ErrUnknownWave = fmt.Errorf("unknown wave number")

// NewArmy :
// Appends a new, empty army to `e`, identified by `aid` (caller-supplied
// so the session layer can use the same id scheme, internal/ids, as
// every other fresh entity).
func (en *Engine) NewArmy(e *Empire, aid, name, direction string) Army {
	a := Army{
		Aid:       aid,
		Owner:     e.UID,
		Name:      name,
		Direction: direction,
	}
	e.Armies = append(e.Armies, a)
	return a
}

// findArmy :
func findArmy(e *Empire, aid string) (int, error) {
	for i := range e.Armies {
		if e.Armies[i].Aid == aid {
			return i, nil
		}
	}
	return -1, ErrUnknownArmy
}

// ChangeArmy :
// Renames an army and/or changes its direction label in place. An empty
// `name`/`direction` leaves the corresponding field unchanged.
func (en *Engine) ChangeArmy(e *Empire, aid, name, direction string) error {
	i, err := findArmy(e, aid)
	if err != nil {
		return err
	}

	if name != "" {
		e.Armies[i].Name = name
	}
	if direction != "" {
		e.Armies[i].Direction = direction
	}

	return nil
}

// NewWave :
// Appends a new wave of `critterIid` critters to the named army, with the
// caller-supplied `slots` count.
func (en *Engine) NewWave(e *Empire, aid, waveID, critterIid string, slots int) error {
	i, err := findArmy(e, aid)
	if err != nil {
		return err
	}

	e.Armies[i].Waves = append(e.Armies[i].Waves, CritterWave{
		WaveID:     waveID,
		CritterIid: critterIid,
		Slots:      slots,
	})
	return nil
}

// ChangeWave :
// Edits the critter type and/or slot count of an existing wave,
// addressed by its 0-based position within the army's wave list. Either
// `critterIid` (empty to leave unchanged) or `slots` (negative to leave
// unchanged) may be supplied independently.
func (en *Engine) ChangeWave(e *Empire, aid string, waveNumber int, critterIid string, slots int) error {
	i, err := findArmy(e, aid)
	if err != nil {
		return err
	}

	waves := e.Armies[i].Waves
	if waveNumber < 0 || waveNumber >= len(waves) {
		return ErrUnknownWave
	}

	if critterIid != "" {
		waves[waveNumber].CritterIid = critterIid
	}
	if slots >= 0 {
		waves[waveNumber].Slots = slots
	}

	return nil
}
