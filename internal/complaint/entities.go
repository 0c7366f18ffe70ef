package complaint

import (
	"strings"

	"complaints/backend/internal/models"
)

// Entity types.
const (
	EntityTransport = "transport"
	EntityHealth    = "health"
	EntityLocation  = "location"
)

type entityRule struct {
	kind     string
	icon     string
	keywords []string
}

// Rules are tried in order; a token is classified by the first rule with a
// keyword it contains.
var entityRules = []entityRule{
	{
		kind: EntityTransport,
		icon: "🚌",
		keywords: []string{
			"bus", "autobús", "metro", "tren", "transporte", "ruta", "parada",
			"taxi", "tráfico", "semáforo", "estación",
		},
	},
	{
		kind: EntityHealth,
		icon: "🏥",
		keywords: []string{
			"hospital", "médico", "salud", "clínica", "urgencias", "enfermer",
			"medicina", "farmacia", "ambulancia",
		},
	},
	{
		kind: EntityLocation,
		icon: "📍",
		keywords: []string{
			"calle", "avenida", "plaza", "barrio", "centro", "norte",
			"parque", "colonia", "carretera",
		},
	},
}

// DetectEntities classifies each whitespace-separated token of text by
// keyword containment. Every matching token yields one entity carrying the
// token as written; repeated tokens are reported again.
func DetectEntities(text string) []models.Entity {
	entities := make([]models.Entity, 0)
	for _, token := range strings.Fields(text) {
		lower := strings.ToLower(token)
		for _, rule := range entityRules {
			if containsAny(lower, rule.keywords) {
				entities = append(entities, models.Entity{Type: rule.kind, Value: token, Icon: rule.icon})
				break
			}
		}
	}
	return entities
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
