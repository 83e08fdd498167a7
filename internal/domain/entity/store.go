package entity

type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type StoreHours struct {
	Type      string `json:"type"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

// Store is a pickup location. Location is a pointer so a store entry that
// arrives without one is distinguishable from a store at coordinates (0, 0).
type Store struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Address  string       `json:"address"`
	Location *Position    `json:"location"`
	Schedule []StoreHours `json:"store_schedule"`
	Status   string       `json:"status"`
	Timezone string       `json:"timezone"`
}

// WorkingHours picks the most relevant schedule entry for display, preferring
// workday over everyday over whatever comes first.
func (s *Store) WorkingHours() (StoreHours, bool) {
	if len(s.Schedule) == 0 {
		return StoreHours{}, false
	}
	var everyday *StoreHours
	for i := range s.Schedule {
		switch s.Schedule[i].Type {
		case "workday":
			return s.Schedule[i], true
		case "everyday":
			everyday = &s.Schedule[i]
		}
	}
	if everyday != nil {
		return *everyday, true
	}
	return s.Schedule[0], true
}
