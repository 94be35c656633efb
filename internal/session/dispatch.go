package session

import (
	"fmt"

	"github.com/empiresrv/empireserver/internal/empire"
	"github.com/empiresrv/empireserver/internal/ids"
	"github.com/empiresrv/empireserver/internal/stats"
	"github.com/empiresrv/empireserver/internal/worldloop"
	"github.com/empiresrv/empireserver/pkg/logger"
)

// dispatcher :
// Routes one decoded envelope to the simulation core, per spec.md §6's
// message family list. Every handler writes its response (or an
// error, per spec.md §7's taxonomy) directly onto `c.out` via
// `c.enqueue`; nothing here blocks on the network.
type dispatcher struct {
	loop     *worldloop.Loop
	hub      *Hub
	accounts *accountStore
	stats    *stats.Service
	log      logger.Logger

	startBuildingIid  string
	startingResources map[string]float64
	startingMaxLife   float64
}

func (d *dispatcher) handle(c *connection, envelope map[string]interface{}) {
	kind, _ := envelope["type"].(string)
	requestID, _ := envelope["request_id"].(string)

	// Every family except auth_request/signup requires an already-bound
	// connection (spec.md §6: all other requests are on behalf of the
	// authenticated uid).
	if kind != "auth_request" && kind != "signup" && c.uid == "" {
		c.enqueue(mustMarshal(errorResponse(requestID, "auth required")))
		return
	}

	switch kind {
	case "auth_request":
		d.handleAuth(c, requestID, envelope)
	case "signup":
		d.handleSignup(c, requestID, envelope)
	case "summary_request":
		d.handleSummary(c, requestID)
	case "item_request":
		d.handleItemRequest(c, requestID)
	case "new_item":
		d.handleNewItem(c, requestID, envelope)
	case "new_structure":
		d.handleNewStructure(c, requestID, envelope)
	case "delete_structure":
		d.handleDeleteStructure(c, requestID, envelope)
	case "upgrade_structure":
		d.handleUpgradeStructure(c, requestID, envelope)
	case "citizen_upgrade":
		d.handleCitizenUpgrade(c, requestID)
	case "change_citizen":
		d.handleChangeCitizen(c, requestID, envelope)
	case "increase_life":
		d.handleIncreaseLife(c, requestID)
	case "military_request":
		d.handleMilitaryRequest(c, requestID)
	case "new_army":
		d.handleNewArmy(c, requestID, envelope)
	case "change_army":
		d.handleChangeArmy(c, requestID, envelope)
	case "new_wave":
		d.handleNewWave(c, requestID, envelope)
	case "change_wave":
		d.handleChangeWave(c, requestID, envelope)
	case "new_attack_request":
		d.handleNewAttack(c, requestID, envelope)
	case "end_siege":
		d.handleEndSiege(c, requestID, envelope)
	case "battle_register":
		d.handleBattleRegister(c, requestID, envelope)
	case "battle_unregister":
		d.handleBattleUnregister(c, requestID, envelope)
	case "user_message":
		d.handleUserMessage(c, requestID, envelope)
	case "timeline_request":
		d.handleTimelineRequest(c, requestID, envelope)
	case "userinfo_request":
		d.handleUserinfoRequest(c, requestID, envelope)
	case "hall_of_fame_request":
		d.handleHallOfFame(c, requestID)
	case "preferences_request":
		d.handlePreferencesRequest(c, requestID)
	case "change_preferences":
		d.handleChangePreferences(c, requestID, envelope)
	default:
		c.enqueue(mustMarshal(errorResponse(requestID, fmt.Sprintf("unknown message type %q", kind))))
	}
}

func stringField(envelope map[string]interface{}, key string) string {
	v, _ := envelope[key].(string)
	return v
}

func intField(envelope map[string]interface{}, key string) int {
	v, ok := envelope[key].(float64)
	if !ok {
		return 0
	}
	return int(v)
}

func reply(c *connection, requestID, kind string, fields map[string]interface{}) {
	out := map[string]interface{}{"type": kind}
	if requestID != "" {
		out["request_id"] = requestID
	}
	for k, v := range fields {
		out[k] = v
	}
	c.enqueue(mustMarshal(out))
}

func (d *dispatcher) fail(c *connection, requestID string, err error) {
	c.enqueue(mustMarshal(errorResponse(requestID, err.Error())))
}

func (d *dispatcher) handleAuth(c *connection, requestID string, envelope map[string]interface{}) {
	uid, err := d.accounts.authenticate(stringField(envelope, "username"), stringField(envelope, "password"))
	if err != nil {
		d.fail(c, requestID, err)
		return
	}
	d.hub.bind(uid, c)
	reply(c, requestID, "auth_response", map[string]interface{}{"uid": uid})
}

func (d *dispatcher) handleSignup(c *connection, requestID string, envelope map[string]interface{}) {
	uid, err := d.accounts.signup(
		stringField(envelope, "username"),
		stringField(envelope, "password"),
		d.startBuildingIid,
		d.startingResources,
		d.startingMaxLife,
	)
	if err != nil {
		d.fail(c, requestID, err)
		return
	}
	d.hub.bind(uid, c)
	reply(c, requestID, "signup_response", map[string]interface{}{"uid": uid})
}

func (d *dispatcher) empireOf(c *connection) (*empire.Empire, bool) {
	return d.loop.Empire(c.uid)
}

func (d *dispatcher) handleSummary(c *connection, requestID string) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	reply(c, requestID, "summary_response", map[string]interface{}{
		"resources":           e.Resources,
		"citizens":            e.Citizens,
		"unassigned_citizens": e.UnassignedCitizens,
		"max_life":            e.MaxLife,
		"tai":                 d.stats.Compute(e),
	})
}

func (d *dispatcher) handleItemRequest(c *connection, requestID string) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	reply(c, requestID, "item_response", map[string]interface{}{
		"buildings": e.Buildings,
		"knowledge": e.Knowledge,
	})
}

func (d *dispatcher) handleNewItem(c *connection, requestID string, envelope map[string]interface{}) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	if err := d.loop.EmpireEngine().BuildItem(e, stringField(envelope, "iid")); err != nil {
		d.fail(c, requestID, err)
		return
	}
	reply(c, requestID, "new_item_response", nil)
}

func (d *dispatcher) handleNewStructure(c *connection, requestID string, envelope map[string]interface{}) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	st, err := d.loop.EmpireEngine().PlaceStructure(e, stringField(envelope, "iid"), intField(envelope, "q"), intField(envelope, "r"))
	if err != nil {
		d.fail(c, requestID, err)
		return
	}
	reply(c, requestID, "new_structure_response", map[string]interface{}{"sid": st.Sid})
}

func (d *dispatcher) handleDeleteStructure(c *connection, requestID string, envelope map[string]interface{}) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	if err := d.loop.EmpireEngine().RemoveStructure(e, stringField(envelope, "sid")); err != nil {
		d.fail(c, requestID, err)
		return
	}
	reply(c, requestID, "delete_structure_response", nil)
}

func (d *dispatcher) handleUpgradeStructure(c *connection, requestID string, envelope map[string]interface{}) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	if err := d.loop.EmpireEngine().UpgradeStructure(e, stringField(envelope, "sid")); err != nil {
		d.fail(c, requestID, err)
		return
	}
	reply(c, requestID, "upgrade_structure_response", nil)
}

func (d *dispatcher) handleCitizenUpgrade(c *connection, requestID string) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	if err := d.loop.EmpireEngine().UpgradeCitizen(e); err != nil {
		d.fail(c, requestID, err)
		return
	}
	reply(c, requestID, "citizen_upgrade_response", nil)
}

func (d *dispatcher) handleChangeCitizen(c *connection, requestID string, envelope map[string]interface{}) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	raw, _ := envelope["distribution"].(map[string]interface{})
	distribution := make(map[empire.CitizenRole]int, len(raw))
	for role, v := range raw {
		if n, ok := v.(float64); ok {
			distribution[empire.CitizenRole(role)] = int(n)
		}
	}
	if err := d.loop.EmpireEngine().ChangeCitizens(e, distribution); err != nil {
		d.fail(c, requestID, err)
		return
	}
	reply(c, requestID, "change_citizen_response", nil)
}

func (d *dispatcher) handleIncreaseLife(c *connection, requestID string) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	if err := d.loop.EmpireEngine().IncreaseLife(e); err != nil {
		d.fail(c, requestID, err)
		return
	}
	reply(c, requestID, "increase_life_response", map[string]interface{}{"max_life": e.MaxLife})
}

func (d *dispatcher) handleMilitaryRequest(c *connection, requestID string) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	available := d.loop.Registry().AvailableCritters(e.CompletedSet())
	iids := make([]string, 0, len(available))
	for _, item := range available {
		iids = append(iids, item.Iid)
	}
	reply(c, requestID, "military_response", map[string]interface{}{
		"armies":              e.Armies,
		"spy_armies":          e.SpyArmies,
		"available_critters":  iids,
		"attacks_incoming":    d.loop.AttackEngine().Incoming(c.uid),
		"attacks_outgoing":    d.loop.AttackEngine().Outgoing(c.uid),
	})
}

func (d *dispatcher) handleNewArmy(c *connection, requestID string, envelope map[string]interface{}) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	army := d.loop.EmpireEngine().NewArmy(e, ids.New(), stringField(envelope, "name"), stringField(envelope, "direction"))
	reply(c, requestID, "new_army_response", map[string]interface{}{"aid": army.Aid})
}

func (d *dispatcher) handleChangeArmy(c *connection, requestID string, envelope map[string]interface{}) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	if err := d.loop.EmpireEngine().ChangeArmy(e, stringField(envelope, "aid"), stringField(envelope, "name"), stringField(envelope, "direction")); err != nil {
		d.fail(c, requestID, err)
		return
	}
	reply(c, requestID, "change_army_response", nil)
}

func (d *dispatcher) handleNewWave(c *connection, requestID string, envelope map[string]interface{}) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	if err := d.loop.EmpireEngine().NewWave(e, stringField(envelope, "aid"), ids.New(), stringField(envelope, "critter_iid"), intField(envelope, "slots")); err != nil {
		d.fail(c, requestID, err)
		return
	}
	reply(c, requestID, "new_wave_response", nil)
}

func (d *dispatcher) handleChangeWave(c *connection, requestID string, envelope map[string]interface{}) {
	e, ok := d.empireOf(c)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", c.uid))
		return
	}
	if err := d.loop.EmpireEngine().ChangeWave(e, stringField(envelope, "aid"), intField(envelope, "wave_number"), stringField(envelope, "critter_iid"), intField(envelope, "slots")); err != nil {
		d.fail(c, requestID, err)
		return
	}
	reply(c, requestID, "change_wave_response", nil)
}

func (d *dispatcher) handleNewAttack(c *connection, requestID string, envelope map[string]interface{}) {
	defenderUID := stringField(envelope, "defender_uid")
	armyAid := stringField(envelope, "army_aid")
	espionage, _ := envelope["espionage"].(bool)

	attackID := ids.New()

	if espionage {
		att := d.loop.AttackEngine().StartEspionageAttack(attackID, c.uid, defenderUID, armyAid)
		reply(c, requestID, "new_attack_response", map[string]interface{}{"attack_id": att.AttackID})
		return
	}
	att := d.loop.AttackEngine().StartAttack(attackID, c.uid, defenderUID, armyAid)
	reply(c, requestID, "new_attack_response", map[string]interface{}{"attack_id": att.AttackID})
}

func (d *dispatcher) handleEndSiege(c *connection, requestID string, envelope map[string]interface{}) {
	attackID := stringField(envelope, "attack_id")
	if attackID == "" {
		if resolved, ok := d.loop.AttackEngine().SiegeAttackFor(c.uid); ok {
			attackID = resolved
		}
	}
	if err := d.loop.AttackEngine().EndSiege(attackID); err != nil {
		d.fail(c, requestID, err)
		return
	}
	reply(c, requestID, "end_siege_response", nil)
}

func (d *dispatcher) handleBattleRegister(c *connection, requestID string, envelope map[string]interface{}) {
	bid := stringField(envelope, "bid")
	if !d.loop.RegisterObserver(bid, c.uid) {
		d.fail(c, requestID, fmt.Errorf("unknown battle %s", bid))
		return
	}
	b, _ := d.loop.Battle(bid)
	reply(c, requestID, "battle_setup", map[string]interface{}{
		"bid":          b.Bid,
		"defender_uid": b.DefenderUID,
		"attacker_uids": b.AttackerUIDs,
		"path":         b.Path,
		"structures":   b.Structures,
		"waves":        b.Waves,
	})
}

func (d *dispatcher) handleBattleUnregister(c *connection, requestID string, envelope map[string]interface{}) {
	d.loop.UnregisterObserver(stringField(envelope, "bid"), c.uid)
	reply(c, requestID, "battle_unregister_response", nil)
}

func (d *dispatcher) handleUserMessage(c *connection, requestID string, envelope map[string]interface{}) {
	target := stringField(envelope, "target_uid")
	body := stringField(envelope, "body")
	if target == "" || !d.hub.Send(target, map[string]interface{}{
		"type": "user_message",
		"from": c.uid,
		"body": body,
	}) {
		d.fail(c, requestID, fmt.Errorf("recipient %s unreachable", target))
		return
	}
	reply(c, requestID, "user_message_response", nil)
}

func (d *dispatcher) handleTimelineRequest(c *connection, requestID string, envelope map[string]interface{}) {
	limit := intField(envelope, "limit")
	reply(c, requestID, "timeline_response", map[string]interface{}{
		"events": d.stats.Timeline(c.uid, limit),
	})
}

func (d *dispatcher) handleUserinfoRequest(c *connection, requestID string, envelope map[string]interface{}) {
	uid := stringField(envelope, "uid")
	if uid == "" {
		uid = c.uid
	}
	e, ok := d.loop.Empire(uid)
	if !ok {
		d.fail(c, requestID, fmt.Errorf("unknown empire %s", uid))
		return
	}
	tai := d.stats.Compute(e)
	condition, hasCondition := d.stats.WinCondition(e)
	fields := map[string]interface{}{
		"uid":  e.UID,
		"name": e.Name,
		"tai":  tai,
	}
	if hasCondition {
		fields["win_condition"] = condition
	}
	if uid == c.uid {
		fields["session_uptime"] = c.uptime()
	}
	reply(c, requestID, "userinfo_response", fields)
}

func (d *dispatcher) handleHallOfFame(c *connection, requestID string) {
	reply(c, requestID, "hall_of_fame_response", map[string]interface{}{
		"entries": d.stats.HallOfFame(d.loop.Empires(), 10),
	})
}

func (d *dispatcher) handlePreferencesRequest(c *connection, requestID string) {
	reply(c, requestID, "preferences_response", map[string]interface{}{
		"preferences": d.stats.Preferences(c.uid),
	})
}

func (d *dispatcher) handleChangePreferences(c *connection, requestID string, envelope map[string]interface{}) {
	raw, _ := envelope["changes"].(map[string]interface{})
	changes := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			changes[k] = s
		}
	}
	d.stats.SetPreferences(c.uid, changes)
	reply(c, requestID, "change_preferences_response", nil)
}
