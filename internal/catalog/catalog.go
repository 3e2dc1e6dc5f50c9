package catalog

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Product is a catalog entry with its base price range in dollars.
type Product struct {
	Name     string
	Category string
	MinPrice float64
	MaxPrice float64
}

// Products is listed in catalog order. Group-by tie-breaks follow this order.
var Products = []Product{
	{"Laptop Pro", "Electronics", 800, 1500},
	{"Smartphone X", "Electronics", 600, 1000},
	{"Wireless Headphones", "Audio", 50, 200},
	{"Tablet Air", "Electronics", 400, 800},
	{"Gaming Console", "Gaming", 300, 500},
	{"Smart Watch", "Wearables", 200, 400},
	{"Bluetooth Speaker", "Audio", 30, 100},
	{"Camera DSLR", "Photography", 500, 1200},
	{"Fitness Tracker", "Wearables", 50, 150},
	{"Wireless Mouse", "Accessories", 20, 60},
	{"Mechanical Keyboard", "Accessories", 80, 200},
	{"Monitor 4K", "Electronics", 300, 600},
	{"USB Drive", "Accessories", 10, 50},
	{"Power Bank", "Accessories", 20, 80},
	{"Webcam HD", "Accessories", 40, 120},
	{"Microphone Pro", "Audio", 60, 150},
	{"Gaming Chair", "Furniture", 150, 300},
	{"Desk Lamp", "Furniture", 30, 80},
	{"Coffee Maker", "Appliances", 80, 200},
	{"Blender", "Appliances", 40, 120},
}

// Channel is a marketing channel and its share of generated traffic.
type Channel struct {
	Name   string
	Weight float64
}

var Channels = []Channel{
	{"Organic Search", 0.30},
	{"Paid Ads", 0.20},
	{"Social Media", 0.15},
	{"Email", 0.10},
	{"Direct", 0.15},
	{"Referral", 0.10},
}

var (
	productNames  []string
	categoryNames []string
	channelNames  []string
	byName        map[string]Product
)

func init() {
	byName = make(map[string]Product, len(Products))
	seen := make(map[string]bool)
	for _, p := range Products {
		productNames = append(productNames, p.Name)
		byName[p.Name] = p
		if !seen[p.Category] {
			seen[p.Category] = true
			categoryNames = append(categoryNames, p.Category)
		}
	}
	for _, c := range Channels {
		channelNames = append(channelNames, c.Name)
	}
}

// ProductNames returns product names in catalog order.
func ProductNames() []string { return clone(productNames) }

// CategoryNames returns categories in order of first appearance in the catalog.
func CategoryNames() []string { return clone(categoryNames) }

// ChannelNames returns marketing channels in enum order.
func ChannelNames() []string { return clone(channelNames) }

func Lookup(name string) (Product, bool) {
	p, ok := byName[name]
	return p, ok
}

// Resolve maps free-form user input to a catalog product name. Exact
// (case-insensitive) matches win, otherwise the best fuzzy match is used.
func Resolve(query string) (string, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", false
	}
	for _, name := range productNames {
		if strings.EqualFold(name, query) {
			return name, true
		}
	}
	matches := fuzzy.Find(strings.ToLower(query), lowerNames())
	if len(matches) == 0 {
		return "", false
	}
	return productNames[matches[0].Index], true
}

func lowerNames() []string {
	out := make([]string, len(productNames))
	for i, n := range productNames {
		out[i] = strings.ToLower(n)
	}
	return out
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
