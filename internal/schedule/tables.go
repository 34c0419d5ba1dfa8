package schedule

import "tonnenheld/internal/models"

// Static per-street collection calendars, transcribed from the municipal
// plan for the 2025/26 season. Hobergerfeld and Westfeld share the Monday
// district; Kerkebrink runs on the Wednesday/Thursday district.
var staticSchedules = map[string]map[models.BinType][]string{
	"Hobergerfeld": mondayDistrict,
	"Westfeld":     mondayDistrict,
	"Kerkebrink": {
		models.BinRestmuell: {
			"2025-12-03", "2025-12-17", "2025-12-31",
			"2026-01-14", "2026-01-28",
			"2026-02-11", "2026-02-25",
			"2026-03-11", "2026-03-25",
			"2026-04-09", // Thu shift
			"2026-04-22",
			"2026-05-06", "2026-05-20",
			"2026-06-03", "2026-06-17",
			"2026-07-01", "2026-07-15", "2026-07-29",
			"2026-08-12", "2026-08-26",
			"2026-09-09", "2026-09-23",
		},
		models.BinBio: {
			"2025-12-10", "2025-12-23", // Tue shift
			"2026-01-07", "2026-01-21",
			"2026-02-04", "2026-02-18",
			"2026-03-04", "2026-03-18", "2026-03-31", // Tue shift
			"2026-04-15", "2026-04-29",
			"2026-05-13", "2026-05-28", // Thu shift
			"2026-06-10", "2026-06-24",
			"2026-07-08", "2026-07-22",
			"2026-08-05", "2026-08-19",
			"2026-09-02", "2026-09-16", "2026-09-30",
		},
		models.BinPapier: {
			"2025-12-03", "2025-12-31",
			"2026-01-28", "2026-02-25", "2026-03-25", "2026-04-22",
			"2026-05-20", "2026-06-17", "2026-07-15", "2026-08-12",
			"2026-09-09",
		},
		models.BinGelberSack: {
			"2025-12-11",
			"2026-01-08", "2026-02-05", "2026-03-05",
			"2026-04-01", // Wed shift
			"2026-05-29", // Fri shift
			"2026-06-25", "2026-07-23", "2026-08-20", "2026-09-17",
		},
	},
}

var mondayDistrict = map[models.BinType][]string{
	models.BinRestmuell: {
		"2025-12-08", "2025-12-20",
		"2026-01-05", "2026-01-19", "2026-02-02", "2026-02-16",
		"2026-03-02", "2026-03-16", "2026-03-28", "2026-04-13",
		"2026-04-27", "2026-05-11", "2026-05-26", "2026-06-08",
		"2026-06-22", "2026-07-06", "2026-07-20", "2026-08-03",
		"2026-08-17", "2026-08-31", "2026-09-14", "2026-09-28",
	},
	models.BinBio: {
		"2025-12-01", "2025-12-15", "2025-12-29",
		"2026-01-12", "2026-01-26", "2026-02-09", "2026-02-23",
		"2026-03-09", "2026-03-23", "2026-04-07", "2026-04-20",
		"2026-05-04", "2026-05-18", "2026-06-01", "2026-06-15",
		"2026-06-29", "2026-07-13", "2026-07-27", "2026-08-10",
		"2026-08-24", "2026-09-07", "2026-09-21",
	},
	models.BinPapier: {
		"2025-12-22",
		"2026-01-20", "2026-02-17", "2026-03-17", "2026-04-14",
		"2026-05-12", "2026-06-09", "2026-07-07", "2026-08-04",
		"2026-09-01", "2026-09-29",
	},
	models.BinGelberSack: {
		"2025-12-04",
		"2026-01-02", "2026-01-29", "2026-02-26", "2026-03-26",
		"2026-04-23", "2026-05-21", "2026-06-18", "2026-07-16",
		"2026-08-13", "2026-09-10",
	},
}

// Streets lists the streets served by the static calendar.
func Streets() []string {
	return []string{"Hobergerfeld", "Kerkebrink", "Westfeld"}
}
