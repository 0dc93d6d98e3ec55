package models

type Role string

const (
	RoleSell      Role = "팝니다"
	RoleBuy       Role = "삽니다"
	RoleTransport Role = "수거/운송"
	RoleOther     Role = "기타"
)

var roles = []Role{RoleSell, RoleBuy, RoleTransport, RoleOther}

func Roles() []Role {
	return append([]Role(nil), roles...)
}

func (r Role) Valid() bool {
	for _, known := range roles {
		if r == known {
			return true
		}
	}
	return false
}

type Category string

const (
	CategoryEquipment Category = "🏭 유휴설비"
	CategoryByproduct Category = "🧪 화학부산물"
	CategoryScrap     Category = "📦 자재/스크랩"
	CategoryTransport Category = "🚛 수거/운송"
	CategoryOther     Category = "📊 기타"
)

var categories = []Category{CategoryEquipment, CategoryByproduct, CategoryScrap, CategoryTransport, CategoryOther}

func Categories() []Category {
	return append([]Category(nil), categories...)
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

type Complex struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type Region struct {
	Name      string    `json:"name"`
	Complexes []Complex `json:"complexes"`
}

var regions = []Region{
	{Name: "수도권", Complexes: []Complex{
		{"시화", 37.3275, 126.7350},
		{"반월", 37.3140, 126.7900},
		{"남동", 37.4050, 126.6900},
		{"평택", 36.9350, 126.8500},
		{"파주LCD", 37.7600, 126.7800},
		{"인천일반", 37.5000, 126.6700},
		{"화성향남", 37.1300, 126.9000},
		{"김포골드", 37.6200, 126.6000},
	}},
	{Name: "충청권", Complexes: []Complex{
		{"대산석유", 36.9900, 126.4200},
		{"당진제철", 36.9500, 126.7500},
		{"아산디플", 36.8000, 127.0700},
		{"오창과학", 36.7100, 127.4300},
		{"청주일반", 36.6400, 127.4300},
		{"대덕테크", 36.4300, 127.4000},
		{"서산테크", 36.8500, 126.5000},
	}},
	{Name: "경상권", Complexes: []Complex{
		{"울산미포", 35.5000, 129.3500},
		{"온산국가", 35.4300, 129.3300},
		{"포항철강", 35.9900, 129.3700},
		{"구미국가", 36.1100, 128.3600},
		{"창원국가", 35.2100, 128.6600},
		{"대구성서", 35.8400, 128.5000},
		{"부산녹산", 35.0900, 128.8700},
	}},
	{Name: "전라/강원", Complexes: []Complex{
		{"여수국가", 34.8200, 127.7000},
		{"광양제철", 34.9300, 127.7300},
		{"군산국가", 35.9500, 126.5500},
		{"광주첨단", 35.2200, 126.8500},
		{"대불국가", 34.7800, 126.4500},
		{"원주문막", 37.3300, 127.8500},
	}},
}

// Regions returns the industrial-complex catalog in display order.
func Regions() []Region {
	out := make([]Region, 0, len(regions))
	for _, r := range regions {
		out = append(out, Region{Name: r.Name, Complexes: append([]Complex(nil), r.Complexes...)})
	}
	return out
}

func LookupComplex(region, complexName string) (Complex, bool) {
	for _, r := range regions {
		if r.Name != region {
			continue
		}
		for _, c := range r.Complexes {
			if c.Name == complexName {
				return c, true
			}
		}
	}
	return Complex{}, false
}
