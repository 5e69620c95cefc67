package surfaces

// defaultAliases maps legacy and engine-specific names onto canonical
// catalog ids. "none" is an explicit sentinel meaning "no surface" so data
// files can spell out the absence of a transform result.
func defaultAliases() map[string]string {
	return map[string]string{
		"none":           "",
		"null":           "",
		"flames":         "fire",
		"wildfire":       "fire",
		"puddle":         "water",
		"electrified":    "electrified_water",
		"electric_water": "electrified_water",
		"poison":         "poison_cloud",
		"poison_gas":     "poison_cloud",
		"spikes":         "spike_field",
		"spike_trap":     "spike_field",
		"dark":           "darkness",
		"magic_darkness": "darkness",
		"slick":          "grease",
	}
}

// defaultCatalog is the built-in surface table registered at construction.
// Hosts may override any entry before combat starts; the catalog package
// layers designer JSON files on top of this set.
func defaultCatalog() []*Definition {
	return []*Definition{
		{
			ID:               "fire",
			Name:             "Fire",
			Category:         CategoryFire,
			Layer:            LayerGround,
			DefaultDuration:  3,
			DamagePerTrigger: 5,
			DamageType:       "fire",
			AppliesStatusID:  statusBurning,
			CanMerge:         true,
			ContactReactions: map[string]Reaction{
				// Freshly cast fire fizzles against standing water.
				"water": {RemoveSource: true},
				"oil":   {ResultSurfaceID: "fire", ResultRadiusMultiplier: 1.25},
				"grease": {
					ResultSurfaceID:        "fire",
					ResultRadiusMultiplier: 1.25,
				},
				"web": {ResultSurfaceID: "fire"},
				// Ground fire reaching into a poison cloud detonates it.
				"poison_cloud": {
					ResultSurfaceID:     "fire",
					ExplosionDamage:     10,
					ExplosionRadius:     3,
					ExplosionDamageType: "fire",
					ExplosionStatusID:   statusBurning,
				},
			},
		},
		{
			ID:                     "water",
			Name:                   "Water",
			Category:               CategoryWater,
			Layer:                  LayerGround,
			MovementCostMultiplier: 1.2,
			AppliesStatusID:        statusWet,
			CanMerge:               true,
			CanBeSubtracted:        true,
			ContactReactions: map[string]Reaction{
				// Water poured over fire boils off into steam.
				"fire": {ResultSurfaceID: "steam", ResultRadiusMultiplier: 0.8},
			},
			EventReactions: map[string]Reaction{
				"electrify": {ResultSurfaceID: "electrified_water"},
			},
		},
		{
			ID:                     "electrified_water",
			Name:                   "Electrified Water",
			Category:               CategoryWater,
			Layer:                  LayerGround,
			DefaultDuration:        2,
			MovementCostMultiplier: 1.2,
			DamagePerTrigger:       4,
			DamageType:             "shock",
			AppliesStatusID:        "shocked",
			SaveAbility:            "constitution",
			SaveDC:                 10,
			CanMerge:               true,
			CanBeSubtracted:        true,
		},
		{
			ID:              "blood",
			Name:            "Blood",
			Category:        CategoryWater,
			Layer:           LayerGround,
			CanMerge:        true,
			CanBeSubtracted: true,
		},
		{
			ID:                     "oil",
			Name:                   "Oil",
			Category:               CategoryOil,
			Layer:                  LayerGround,
			MovementCostMultiplier: 1.5,
			CanMerge:               true,
			CanBeSubtracted:        true,
		},
		{
			ID:                     "grease",
			Name:                   "Grease",
			Category:               CategoryOil,
			Layer:                  LayerGround,
			MovementCostMultiplier: 1.5,
			AppliesStatusID:        "slipping",
			SaveAbility:            "dexterity",
			SaveDC:                 10,
			CanMerge:               true,
			CanBeSubtracted:        true,
		},
		{
			ID:               "poison_cloud",
			Name:             "Poison Cloud",
			Category:         CategoryPoison,
			Layer:            LayerCloud,
			DefaultDuration:  4,
			DamagePerTrigger: 3,
			DamageType:       "poison",
			AppliesStatusID:  "poisoned",
			SaveAbility:      "constitution",
			SaveDC:           12,
			CanMerge:         true,
			EventReactions: map[string]Reaction{
				"ignite": {
					ResultSurfaceID:     "fire",
					ExplosionDamage:     10,
					ExplosionRadius:     3,
					ExplosionDamageType: "fire",
					ExplosionStatusID:   statusBurning,
				},
			},
		},
		{
			ID:              "steam",
			Name:            "Steam",
			Category:        CategoryWater,
			Layer:           LayerCloud,
			DefaultDuration: 2,
			CanMerge:        true,
		},
		{
			ID:                     "ice",
			Name:                   "Ice",
			Category:               CategoryIce,
			Layer:                  LayerGround,
			MovementCostMultiplier: 2,
			AppliesStatusID:        "slipping",
			SaveAbility:            "dexterity",
			SaveDC:                 10,
			CanMerge:               true,
			CanBeSubtracted:        true,
		},
		{
			ID:                     "web",
			Name:                   "Webs",
			Category:               CategoryWeb,
			Layer:                  LayerGround,
			MovementCostMultiplier: 2,
			AppliesStatusID:        "webbed",
			SaveAbility:            "strength",
			SaveDC:                 12,
			CanMerge:               true,
			CanBeSubtracted:        true,
		},
		{
			ID:               "acid",
			Name:             "Acid",
			Category:         CategoryAcid,
			Layer:            LayerGround,
			DefaultDuration:  3,
			DamagePerTrigger: 4,
			DamageType:       "acid",
			AppliesStatusID:  "corroding",
			CanMerge:         true,
			CanBeSubtracted:  true,
		},
		{
			ID:                        "spike_field",
			Name:                      "Spike Field",
			Category:                  CategoryHazard,
			Layer:                     LayerGround,
			MovementCostMultiplier:    1.5,
			DamageType:                "piercing",
			DamageDicePerDistanceUnit: "2d4",
			DamageDistanceUnit:        1.5,
			CanMerge:                  true,
			CanBeSubtracted:           true,
		},
		{
			ID:               "darkness",
			Name:             "Hungering Darkness",
			Category:         CategoryDarkness,
			Layer:            LayerCloud,
			DefaultDuration:  5,
			DamagePerTrigger: 2,
			DamageType:       "necrotic",
			CanMerge:         true,
			CanBeSubtracted:  true,
		},
		{
			ID:                     "lava",
			Name:                   "Lava",
			Category:               CategoryFire,
			Layer:                  LayerGround,
			MovementCostMultiplier: 3,
			DamagePerTrigger:       10,
			DamageType:             "fire",
			AppliesStatusID:        statusBurning,
			CanMerge:               true,
		},
	}
}
