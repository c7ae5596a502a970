package model

// サービス対象の都市（クローズドなenum）
type City string

const (
	CityMumbai    City = "MUMBAI"
	CityDelhi     City = "DELHI"
	CityBangalore City = "BANGALORE"
	CityHyderabad City = "HYDERABAD"
	CityChennai   City = "CHENNAI"
	CityPune      City = "PUNE"
)

// 有効な都市かどうか
func IsValidCity(c City) bool {
	switch c {
	case CityMumbai, CityDelhi, CityBangalore, CityHyderabad, CityChennai, CityPune:
		return true
	default:
		return false
	}
}
