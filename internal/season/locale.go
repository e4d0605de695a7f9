package season

import (
	"golang.org/x/text/language"
)

// catalog holds the display strings of one language.
type catalog struct {
	seasonNames     map[Season]string
	shortNames      map[Season]string
	months          [12]string
	descriptions    map[Season]string
	recommendations map[Season][]string
}

var spanish = catalog{
	seasonNames: map[Season]string{
		Dry:        "Temporada Seca",
		Rainy:      "Temporada Lluviosa",
		Transition: "Transición",
	},
	shortNames: map[Season]string{
		Dry:        "Seca",
		Rainy:      "Lluviosa",
		Transition: "Transición",
	},
	months: [12]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	},
	descriptions: map[Season]string{
		Dry:        "Período seco con poca lluvia. Aumenta frecuencia de riego y monitoreo de humedad.",
		Rainy:      "Período lluvioso con precipitaciones frecuentes. Reduce riego y mejora drenaje.",
		Transition: "Período de transición entre temporadas. Ajusta riego según condiciones.",
	},
	recommendations: map[Season][]string{
		Dry: {
			"Aumenta la frecuencia de riego",
			"Verifica la humedad del sustrato diariamente",
			"Considera mulch para retener humedad",
			"Riega temprano en la mañana o tarde",
			"Monitorea signos de estrés hídrico",
		},
		Rainy: {
			"Reduce la frecuencia de riego",
			"Asegura buen drenaje en macetas",
			"Protege plantas de lluvia excesiva si es necesario",
			"Monitorea signos de exceso de humedad",
			"Aumenta aplicación de EM para prevenir hongos",
		},
		Transition: {
			"Ajusta riego según condiciones climáticas",
			"Prepara para cambio de temporada",
			"Monitorea pronóstico del tiempo",
			"Ajusta fertilización según necesidad",
		},
	},
}

var english = catalog{
	seasonNames: map[Season]string{
		Dry:        "Dry Season",
		Rainy:      "Rainy Season",
		Transition: "Transition",
	},
	shortNames: map[Season]string{
		Dry:        "Dry",
		Rainy:      "Rainy",
		Transition: "Transition",
	},
	months: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	descriptions: map[Season]string{
		Dry:        "Dry period with little rain. Water more often and monitor substrate moisture.",
		Rainy:      "Wet period with frequent rain. Water less and improve drainage.",
		Transition: "Transition between seasons. Adjust watering to conditions.",
	},
	recommendations: map[Season][]string{
		Dry: {
			"Increase watering frequency",
			"Check substrate moisture daily",
			"Consider mulch to retain moisture",
			"Water early in the morning or late afternoon",
			"Watch for signs of water stress",
		},
		Rainy: {
			"Reduce watering frequency",
			"Make sure pots drain well",
			"Shelter plants from excessive rain if needed",
			"Watch for signs of excess moisture",
			"Increase EM applications to prevent fungus",
		},
		Transition: {
			"Adjust watering to the weather",
			"Prepare for the season change",
			"Follow the weather forecast",
			"Adjust fertilization as needed",
		},
	},
}

// Supported languages in preference order; the first one is the default.
var supportedLanguages = []language.Tag{language.Spanish, language.English}

var (
	languageMatcher = language.NewMatcher(supportedLanguages)
	catalogs        = map[language.Tag]*catalog{
		language.Spanish: &spanish,
		language.English: &english,
	}
)

// SupportedLanguages returns the languages display strings are available in.
func SupportedLanguages() []language.Tag {
	return append([]language.Tag(nil), supportedLanguages...)
}

// MatchLanguage picks the best supported language for the given preferences,
// each either a BCP 47 tag or an Accept-Language header value. Spanish is
// returned when nothing matches.
func MatchLanguage(preferences ...string) language.Tag {
	var wanted []language.Tag
	for _, p := range preferences {
		if p == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		wanted = append(wanted, tags...)
	}
	if len(wanted) == 0 {
		return supportedLanguages[0]
	}

	_, index, confidence := languageMatcher.Match(wanted...)
	if confidence == language.No {
		return supportedLanguages[0]
	}
	return supportedLanguages[index]
}

func catalogFor(tag language.Tag) *catalog {
	base, _ := tag.Base()
	for t, c := range catalogs {
		if b, _ := t.Base(); b == base {
			return c
		}
	}
	return &spanish
}

// SeasonName returns the display name of a season in the given language.
func SeasonName(s Season, tag language.Tag) string {
	return catalogFor(tag).seasonNames[s]
}

// MonthName returns the display name of a month (1-12) in the given language.
func MonthName(month int, tag language.Tag) string {
	if month < 1 || month > 12 {
		return ""
	}
	return catalogFor(tag).months[month-1]
}

// Recommendations returns a fresh copy of the care recommendations for a season.
func Recommendations(s Season, tag language.Tag) []string {
	return append([]string(nil), catalogFor(tag).recommendations[s]...)
}
