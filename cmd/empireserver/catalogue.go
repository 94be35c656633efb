package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/empiresrv/empireserver/internal/ai"
	"github.com/empiresrv/empireserver/internal/items"
)

// Loading the item catalogue, the default hex map and the AI's scripted
// wave list is explicitly out of scope for the simulation core
// (spec.md §1 names "config YAML readers" a collaborator interface
// only). This file is deliberately kept at the cmd/ boundary rather
// than inside any internal/ package so that boundary stays real: every
// function here does nothing but turn a YAML document into the plain
// Go values internal/items, internal/ai and internal/empire already
// accept, the same way internal/arguments turns a YAML document into
// an AppMetadata.

func viperFromFile(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config file %q (err: %v)", path, err)
	}
	return v, nil
}

// stringFloatMap reads a nested "key: value" section into a
// map[string]float64, skipping entries that don't parse as a number
// (yaml.v2, which viper embeds, already decodes bare numeric scalars as
// float64/int).
func stringFloatMap(raw map[string]interface{}) map[string]float64 {
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		switch n := v.(type) {
		case float64:
			out[k] = n
		case int:
			out[k] = float64(n)
		}
	}
	return out
}

func stringIntMap(raw map[string]interface{}) map[string]int {
	out := make(map[string]int, len(raw))
	for k, v := range raw {
		switch n := v.(type) {
		case int:
			out[k] = n
		case float64:
			out[k] = int(n)
		}
	}
	return out
}

func stringSet(raw []interface{}) map[string]struct{} {
	out := make(map[string]struct{}, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out[s] = struct{}{}
		}
	}
	return out
}

// itemFromSection builds one catalogue Item from a single YAML mapping
// entry, applying the zero-defaults item_loader.py's original uses
// (effort 0, slots 1, shot_type "NORMAL").
func itemFromSection(iid string, kind items.Kind, attrs map[string]interface{}) items.Item {
	it := items.Item{
		Iid:          iid,
		Kind:         kind,
		Effort:       0,
		Cost:         map[string]float64{},
		Requirements: map[string]struct{}{},
		Effects:      map[string]float64{},
		Capture:      map[string]float64{},
		Bonus:        map[string]float64{},
		SpawnOnDeath: map[string]int{},
		Slots:        1,
		ShotType:     items.Normal,
	}

	nums := stringFloatMap(attrs)
	if v, ok := nums["effort"]; ok {
		it.Effort = v
	}
	if v, ok := attrs["costs"].(map[string]interface{}); ok {
		it.Cost = stringFloatMap(v)
	}
	if v, ok := attrs["requirements"].([]interface{}); ok {
		it.Requirements = stringSet(v)
	}
	if v, ok := attrs["effects"].(map[string]interface{}); ok {
		it.Effects = stringFloatMap(v)
	}

	if v, ok := nums["damage"]; ok {
		it.Damage = v
	}
	if v, ok := attrs["range"].(int); ok {
		it.Range = v
	}
	if v, ok := attrs["reload_ms"].(int); ok {
		it.ReloadMs = v
	}
	if v, ok := nums["shot_speed"]; ok {
		it.ShotSpeed = v
	}
	if v, ok := attrs["shot_type"].(string); ok {
		it.ShotType = items.ShotType(v)
	}

	if v, ok := nums["health"]; ok {
		it.Health = v
	}
	if v, ok := nums["speed"]; ok {
		it.Speed = v
	}
	if v, ok := nums["armour"]; ok {
		it.Armour = v
	}
	if v, ok := attrs["slots"].(int); ok {
		it.Slots = v
	}
	if v, ok := attrs["spawn_interval_ms"].(int); ok {
		it.SpawnIntervalMs = v
	}
	if v, ok := attrs["capture"].(map[string]interface{}); ok {
		it.Capture = stringFloatMap(v)
	}
	if v, ok := attrs["bonus"].(map[string]interface{}); ok {
		it.Bonus = stringFloatMap(v)
	}
	if v, ok := attrs["spawn_on_death"].(map[string]interface{}); ok {
		it.SpawnOnDeath = stringIntMap(v)
	}

	return it
}

// loadCatalogue reads the item catalogue out of a single YAML document
// with one top-level section per items.Kind, grounded on
// original_source/python_server/loaders/item_loader.py's section list.
func loadCatalogue(path string) ([]items.Item, error) {
	v, err := viperFromFile(path)
	if err != nil {
		return nil, err
	}

	sections := map[string]items.Kind{
		"buildings":  items.Building,
		"knowledge":  items.Knowledge,
		"structures": items.Structure,
		"critters":   items.Critter,
		"artefacts":  items.Artefact,
		"wonders":    items.Wonder,
	}

	var catalogue []items.Item
	for section, kind := range sections {
		entries := v.GetStringMap(section)
		for iid, raw := range entries {
			attrs, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			catalogue = append(catalogue, itemFromSection(iid, kind, attrs))
		}
	}

	return catalogue, nil
}

// loadHexMap reads a defender's starting territory out of the "tiles"
// section of a map YAML document: a flat "q,r": "tiletype" mapping,
// the same shape internal/empire.Empire.HexMap and
// internal/worldloop.tileMapFromEmpire already consume.
func loadHexMap(path string) (map[string]string, error) {
	v, err := viperFromFile(path)
	if err != nil {
		return nil, err
	}

	raw := v.GetStringMapString("tiles")
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		out[k] = val
	}
	return out, nil
}

// loadScriptedWaves reads the AI's hard-coded wave definitions out of a
// YAML document shaped like original_source's ai_waves.yaml: a top-level
// "waves" list, each entry an id, an optional trigger and an ordered
// wave list.
func loadScriptedWaves(path string) ([]ai.ScriptedWaveDef, error) {
	v, err := viperFromFile(path)
	if err != nil {
		return nil, err
	}

	raw, ok := v.Get("waves").([]interface{})
	if !ok {
		return nil, nil
	}

	var defs []ai.ScriptedWaveDef
	for _, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}

		def := ai.ScriptedWaveDef{}
		if id, ok := m["id"].(string); ok {
			def.ID = id
		}

		if trigger, ok := m["trigger"].(map[string]interface{}); ok {
			if items_, ok := trigger["items"].([]interface{}); ok {
				for _, it := range items_ {
					if s, ok := it.(string); ok {
						def.TriggerItems = append(def.TriggerItems, s)
					}
				}
			}
			if citizen, ok := trigger["citizen"].(int); ok {
				def.TriggerCitizen = citizen
			}
		}

		if waves, ok := m["waves"].([]interface{}); ok {
			for _, w := range waves {
				wm, ok := w.(map[string]interface{})
				if !ok {
					continue
				}
				spec := ai.WaveSpec{Slots: 1}
				if iid, ok := wm["iid"].(string); ok {
					spec.Iid = iid
				}
				if slots, ok := wm["slots"].(int); ok {
					spec.Slots = slots
				}
				def.Waves = append(def.Waves, spec)
			}
		}

		defs = append(defs, def)
	}

	return defs, nil
}
