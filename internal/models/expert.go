package models

type Load string

const (
	LoadFree       Load = "free"
	LoadBusy       Load = "busy"
	LoadOverloaded Load = "overloaded"
)

// Expert - профиль исполнителя
type Expert struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Phone                string   `json:"phone"`
	Email                string   `json:"email,omitempty"`
	Cities               []string `json:"cities"`
	Brands               []string `json:"brands"`
	Generations          []string `json:"generations"`
	Rating               float64  `json:"rating"`
	CompletedInspections int      `json:"completedInspections"`
	CancelRate           float64  `json:"cancelRate"`
	Active               bool     `json:"active"`
	Notes                string   `json:"notes,omitempty"`
	Specialization       string   `json:"specialization,omitempty"`
	Services             []string `json:"services"`
	TravelRadiusKm       int      `json:"travelRadiusKm,omitempty"`
	BaseArea             string   `json:"baseArea,omitempty"`
	BrandTags            []string `json:"brandTags"`
	SkillTags            []string `json:"skillTags"`
	LoadToday            Load     `json:"loadToday,omitempty"`
	AvgReportHours       float64  `json:"avgReportHours,omitempty"`
	AvgResponseMinutes   float64  `json:"avgResponseMinutes,omitempty"`
	Last30dInspections   int      `json:"last30dInspections,omitempty"`
	RecommendRatio       float64  `json:"recommendRatio,omitempty"`
}

func (e Expert) ServesCity(city string) bool {
	return contains(e.Cities, city)
}

// CoversBrand смотрит и в основные марки, и в теги
func (e Expert) CoversBrand(brand string) bool {
	return contains(e.Brands, brand) || contains(e.BrandTags, brand)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
