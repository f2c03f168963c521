// Package catalog 保存进程级的只读参考数据：城市、酒店星级、设施词表以及徽章阈值。
// 所有表在包初始化时构建，之后不再修改，因此可以无锁并发读取。
package catalog

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidCity 表示请求的城市不在目录中。
var ErrInvalidCity = errors.New("城市不存在")

// City 是目录中的一个城市及其电话区号。
type City struct {
	Name   string
	Prefix string
}

var cities = []City{
	{"Ancona", "071-"},
	{"Aosta", "0165-"},
	{"Bari", "080-"},
	{"Bologna", "051-"},
	{"Cagliari", "070-"},
	{"Campobasso", "0874-"},
	{"Catanzaro", "0961-"},
	{"Firenze", "055-"},
	{"Genova", "010-"},
	{"L'Aquila", "0862-"},
	{"Milano", "02-"},
	{"Napoli", "081-"},
	{"Palermo", "091-"},
	{"Perugia", "075-"},
	{"Potenza", "0791-"},
	{"Roma", "06-"},
	{"Torino", "011-"},
	{"Trento", "0461-"},
	{"Trieste", "040-"},
	{"Venezia", "041-"},
}

// cityIndex 以小写城市名为键，值为城市在 cities 中的序号。
var cityIndex = func() map[string]int {
	idx := make(map[string]int, len(cities))
	for i, c := range cities {
		idx[strings.ToLower(c.Name)] = i
	}
	return idx
}()

// Cities 返回全部城市的副本，顺序固定。
func Cities() []City {
	out := make([]City, len(cities))
	copy(out, cities)
	return out
}

// CityNames 返回全部城市名，顺序与 Cities 一致。
func CityNames() []string {
	names := make([]string, len(cities))
	for i, c := range cities {
		names[i] = c.Name
	}
	return names
}

// LookupCity 按名称（不区分大小写）查找城市，返回规范化后的城市及其序号。
func LookupCity(name string) (City, int, error) {
	i, ok := cityIndex[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return City{}, 0, ErrInvalidCity
	}
	return cities[i], i, nil
}

// IsCity 判断名称是否为目录中的城市。
func IsCity(name string) bool {
	_, _, err := LookupCity(name)
	return err == nil
}

// Type 是酒店星级。两个 superior 等级与同星级的普通等级共享星数。
type Type struct {
	Code     string
	Stars    int
	Superior bool
}

// Label 返回展示用的星级名称，例如 "4 stelle superior"。
func (t Type) Label() string {
	label := strconv.Itoa(t.Stars) + " stelle"
	if t.Superior {
		label += " superior"
	}
	return label
}

var types = []Type{
	{Code: "3", Stars: 3},
	{Code: "4", Stars: 4},
	{Code: "4S", Stars: 4, Superior: true},
	{Code: "5", Stars: 5},
	{Code: "5S", Stars: 5, Superior: true},
}

// Types 返回全部星级，顺序固定。
func Types() []Type {
	out := make([]Type, len(types))
	copy(out, types)
	return out
}

// ParseTypeLabel 将展示名称解析回星级。
func ParseTypeLabel(label string) (Type, bool) {
	for _, t := range types {
		if t.Label() == label {
			return t, true
		}
	}
	return Type{}, false
}

// HotelName 按目录规则构造酒店名称。
func HotelName(city string, t Type) string {
	return "Hotel " + city + " " + t.Code
}

var features = []string{
	"Aria condizionata",
	"Cancellazione gratuita",
	"Centro benessere",
	"Colazione inclusa",
	"Frigo in camera",
	"Pagamento in struttura",
	"Parcheggio gratuito",
	"Palestra",
	"Piscina al chiuso",
	"Ristorante",
	"Sauna",
	"TV in camera",
	"Wi-Fi",
}

// Features 返回设施词表的副本。
func Features() []string {
	out := make([]string, len(features))
	copy(out, features)
	return out
}

var addresses = []string{
	"Vicolo Corto", "Vicolo Stretto", "Bastioni Gran Sasso", "Viale Monterosa",
	"Viale Vesuvio", "Via Accademia", "Corso Ateneo", "Piazza Università",
	"Via Verdi", "Corso Raffaello", "Piazza Dante", "Via Marco Polo",
	"Corso Magellano", "Largo Colombo", "Viale Costantino", "Viale Traiano",
	"Piazza Giulio Cesare", "Via Roma", "Corso Impero", "Largo Augusto",
	"Viale dei Giardini", "Parco della Vittoria",
}

var descriptions = []string{
	"Un hotel moderno con vista mozzafiato a ",
	"Un hotel ristrutturato a due passi dal centro di ",
	"Un hotel storico situato nel centro di ",
	"Un hotel vicino alle principali attrazioni turistiche di ",
	"Un hotel elegante nei pressi di ",
}

// Addresses 返回街道词表的副本。
func Addresses() []string {
	out := make([]string, len(addresses))
	copy(out, addresses)
	return out
}

// Descriptions 返回描述前缀词表的副本，前缀之后拼接城市名。
func Descriptions() []string {
	out := make([]string, len(descriptions))
	copy(out, descriptions)
	return out
}

// Badge 是用户经验等级：达到 Threshold 条评论即获得。
type Badge struct {
	Threshold int
	Label     string
}

var badges = []Badge{
	{1, "Recensore"},
	{2, "Recensore esperto"},
	{3, "Contributore"},
	{5, "Contributore esperto"},
	{8, "Contributore super"},
}

// Badges 返回按阈值升序排列的徽章表。
func Badges() []Badge {
	out := make([]Badge, len(badges))
	copy(out, badges)
	return out
}

// BadgeFor 返回评论数为 count 的用户所能获得的最高徽章；未达到任何阈值时返回空字符串。
func BadgeFor(count int) string {
	label := ""
	for _, b := range badges {
		if count < b.Threshold {
			break
		}
		label = b.Label
	}
	return label
}
