package semcache

// DefaultGroups covers the questions guests paraphrase most. Phrases are
// matched against the normalized question (lowercase, no punctuation), in
// both English and Spanish.
func DefaultGroups() []Group {
	return []Group{
		{
			Key: "wifi_access",
			Phrases: []string{
				"wifi password", "wifi key", "wi fi password", "internet password",
				"wifi code", "clave del wifi", "contraseña del wifi", "clave de internet",
			},
		},
		{
			Key: "check_in_times",
			Phrases: []string{
				"check in time", "checkin time", "what time is check in",
				"check out time", "checkout time", "hora de entrada", "hora de salida",
			},
		},
		{
			Key: "beach_recommendations",
			Phrases: []string{
				"best beaches", "beaches nearby", "which beach", "closest beach",
				"mejores playas", "playas cerca",
			},
		},
		{
			Key: "breakfast_info",
			Phrases: []string{
				"breakfast included", "breakfast time", "when is breakfast",
				"desayuno incluido", "hora del desayuno",
			},
		},
		{
			Key: "parking_info",
			Phrases: []string{
				"where to park", "parking available", "is there parking",
				"donde estacionar", "hay parqueadero",
			},
		},
	}
}
