package models

type CategoryID string

// Built-in categories, in classification order.
const (
	CategoryFire          CategoryID = "fire"
	CategoryFlood         CategoryID = "flood"
	CategoryRoadAccident  CategoryID = "road_accident"
	CategoryEarthquake    CategoryID = "earthquake"
	CategoryLandslide     CategoryID = "landslide"
	CategoryOilSpill      CategoryID = "oil_spill"
	CategoryPowerOutage   CategoryID = "power_outage"
	CategoryExplosion     CategoryID = "explosion"
	CategoryTornado       CategoryID = "tornado"
	CategoryEpidemic      CategoryID = "epidemic"
	CategoryAnimalAttack  CategoryID = "animal_attack"
	CategoryCrimeOrTheft  CategoryID = "crime_or_theft"
	CategoryGeneralDanger CategoryID = "general_danger"
)

type Category struct {
	ID        CategoryID
	Label     string   // e.g. "🔥 Fire"
	Keywords  []string // lower-case substrings
	Questions []string // follow-up prompts, asked in order
}
