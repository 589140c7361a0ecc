package domain

import "sort"

// SlotBlueprint describes one role slot within a party template.
type SlotBlueprint struct {
	Role string
	// DefaultMookCount seeds the slot's display metadata; nil leaves it unset.
	DefaultMookCount *int
}

// PartyTemplate is an immutable catalog entry: a named, pre-built set of slot
// roles that can be stamped onto a party.
type PartyTemplate struct {
	Key         string
	Name        string
	Description string
	Slots       []SlotBlueprint
}

// Slot role tags used by the built-in templates. Roles are free-form strings;
// callers may use others.
const (
	RoleBoss        = "boss"
	RoleUberBoss    = "uber_boss"
	RoleFeaturedFoe = "featured_foe"
	RoleMook        = "mook"
	RoleDriver      = "driver"
	RoleAlly        = "ally"
)

func mooks(count int) *int {
	return &count
}

// templateCatalog is populated once at init and never mutated afterwards, so
// concurrent reads need no synchronization.
var templateCatalog = []PartyTemplate{
	{
		Key:         "big_boss_showdown",
		Name:        "Big Boss Showdown",
		Description: "A climactic set piece: the boss, two lieutenants, and their mook screen.",
		Slots: []SlotBlueprint{
			{Role: RoleBoss},
			{Role: RoleFeaturedFoe},
			{Role: RoleFeaturedFoe},
			{Role: RoleMook, DefaultMookCount: mooks(10)},
			{Role: RoleMook, DefaultMookCount: mooks(10)},
		},
	},
	{
		Key:         "street_ambush",
		Name:        "Street Ambush",
		Description: "A featured foe springs a trap with waves of street toughs.",
		Slots: []SlotBlueprint{
			{Role: RoleFeaturedFoe},
			{Role: RoleMook, DefaultMookCount: mooks(5)},
			{Role: RoleMook, DefaultMookCount: mooks(5)},
			{Role: RoleMook, DefaultMookCount: mooks(5)},
		},
	},
	{
		Key:         "mook_horde",
		Name:        "Mook Horde",
		Description: "Nothing but waves of identical foot soldiers.",
		Slots: []SlotBlueprint{
			{Role: RoleMook, DefaultMookCount: mooks(15)},
			{Role: RoleMook, DefaultMookCount: mooks(15)},
			{Role: RoleMook, DefaultMookCount: mooks(15)},
			{Role: RoleMook, DefaultMookCount: mooks(15)},
		},
	},
	{
		Key:         "chase_sequence",
		Name:        "Chase Sequence",
		Description: "A pursuit through traffic: wheelmen up front, gunners hanging out the windows.",
		Slots: []SlotBlueprint{
			{Role: RoleFeaturedFoe},
			{Role: RoleDriver},
			{Role: RoleDriver},
			{Role: RoleMook, DefaultMookCount: mooks(5)},
		},
	},
	{
		Key:         "sorcerer_circle",
		Name:        "Sorcerer and Circle",
		Description: "An uber-boss sorcerer shielded by an inner circle and chanting acolytes.",
		Slots: []SlotBlueprint{
			{Role: RoleUberBoss},
			{Role: RoleFeaturedFoe},
			{Role: RoleMook, DefaultMookCount: mooks(8)},
			{Role: RoleMook, DefaultMookCount: mooks(8)},
		},
	},
	{
		Key:         "warehouse_raid",
		Name:        "Warehouse Raid",
		Description: "Guards on the floor, a lieutenant on the catwalk, reinforcements at the door.",
		Slots: []SlotBlueprint{
			{Role: RoleFeaturedFoe},
			{Role: RoleFeaturedFoe},
			{Role: RoleMook, DefaultMookCount: mooks(6)},
			{Role: RoleMook, DefaultMookCount: mooks(6)},
			{Role: RoleMook, DefaultMookCount: mooks(6)},
		},
	},
	{
		Key:         "rooftop_duel",
		Name:        "Rooftop Duel",
		Description: "A personal showdown: the boss and a single second, no backup.",
		Slots: []SlotBlueprint{
			{Role: RoleBoss},
			{Role: RoleFeaturedFoe},
		},
	},
	{
		Key:         "hired_muscle",
		Name:        "Hired Muscle",
		Description: "An allied escort: a bodyguard, a driver, and a handful of extra guns.",
		Slots: []SlotBlueprint{
			{Role: RoleAlly},
			{Role: RoleDriver},
			{Role: RoleMook, DefaultMookCount: mooks(4)},
		},
	},
}

// Templates returns the catalog sorted by display name. The result is a copy;
// callers may not mutate catalog entries through it.
func Templates() []PartyTemplate {
	templates := make([]PartyTemplate, len(templateCatalog))
	for i, template := range templateCatalog {
		templates[i] = copyTemplate(template)
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})
	return templates
}

// TemplateByKey looks up one catalog entry by key.
func TemplateByKey(key string) (PartyTemplate, bool) {
	for _, template := range templateCatalog {
		if template.Key == key {
			return copyTemplate(template), true
		}
	}
	return PartyTemplate{}, false
}

func copyTemplate(template PartyTemplate) PartyTemplate {
	duplicate := template
	duplicate.Slots = make([]SlotBlueprint, len(template.Slots))
	for i, blueprint := range template.Slots {
		duplicate.Slots[i] = blueprint
		if blueprint.DefaultMookCount != nil {
			count := *blueprint.DefaultMookCount
			duplicate.Slots[i].DefaultMookCount = &count
		}
	}
	return duplicate
}
