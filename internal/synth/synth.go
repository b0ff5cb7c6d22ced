// Package synth generates synthetic attribute values for dimension and fact
// records: names, addresses, emails, phones, companies, cities, sentences,
// and words, plus unique integers for surrogate keys.
//
// The generated strings are opaque to the rest of the pipeline; builders only
// rely on column identity and, for unique ints, on uniqueness within one
// allocation scope. All randomness flows through an injected *rand.Rand so a
// fixed seed reproduces the same records.
package synth

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"warehouse/internal/keyset"
)

// Kind identifies an attribute family the generator can produce.
type Kind string

const (
	KindName     Kind = "name"
	KindAddress  Kind = "address"
	KindEmail    Kind = "email"
	KindPhone    Kind = "phone"
	KindCompany  Kind = "company"
	KindCity     Kind = "city"
	KindSentence Kind = "sentence"
	KindWord     Kind = "word"
)

// Generator produces synthetic attribute values. It is not safe for
// concurrent use; give each goroutine its own Generator (or serialize calls)
// since every draw advances the shared random stream.
type Generator struct {
	rng *rand.Rand
}

// New returns a Generator drawing from rng.
func New(rng *rand.Rand) *Generator { return &Generator{rng: rng} }

// Value produces one attribute of the requested kind.
func (g *Generator) Value(k Kind) (string, error) {
	switch k {
	case KindName:
		return g.Name(), nil
	case KindAddress:
		return g.Address(), nil
	case KindEmail:
		return g.Email(), nil
	case KindPhone:
		return g.Phone(), nil
	case KindCompany:
		return g.Company(), nil
	case KindCity:
		return g.City(), nil
	case KindSentence:
		return g.Sentence(), nil
	case KindWord:
		return g.Word(), nil
	default:
		return "", fmt.Errorf("synth: unknown kind %q", k)
	}
}

// UniqueSampler returns a fresh unique-integer scope over [min, max].
// Constructing a new sampler is the explicit "reset" between independent
// allocation scopes; the Generator itself holds no unique-draw state.
func (g *Generator) UniqueSampler(min, max int) (*keyset.Sampler, error) {
	return keyset.NewSampler(g.rng, min, max)
}

func (g *Generator) pick(list []string) string {
	return list[g.rng.Intn(len(list))]
}

// Name returns a "First Last" person name.
func (g *Generator) Name() string {
	return g.pick(firstNames) + " " + g.pick(lastNames)
}

// Address returns a street address line with city, state, and ZIP.
func (g *Generator) Address() string {
	return fmt.Sprintf("%d %s %s, %s, %s %05d",
		g.rng.Intn(9899)+100,
		g.pick(lastNames),
		g.pick(streetSuffixes),
		g.pick(cities),
		g.pick(stateCodes),
		g.rng.Intn(90000)+10000)
}

// Email returns a lowercase address with a numeric disambiguator so that
// repeated draws rarely collide even for identical names.
func (g *Generator) Email() string {
	first := strings.ToLower(g.pick(firstNames))
	last := strings.ToLower(g.pick(lastNames))
	return fmt.Sprintf("%s.%s%d@%s", first, last, g.rng.Intn(10000), g.pick(emailDomains))
}

// Phone returns a US-format phone number.
func (g *Generator) Phone() string {
	return fmt.Sprintf("(%03d) %03d-%04d",
		g.rng.Intn(800)+200, g.rng.Intn(800)+200, g.rng.Intn(10000))
}

// Company returns a company name with a legal suffix.
func (g *Generator) Company() string {
	return g.pick(lastNames) + " " + g.pick(companySuffixes)
}

// City returns a city name.
func (g *Generator) City() string { return g.pick(cities) }

// Word returns a single lowercase word.
func (g *Generator) Word() string { return g.pick(words) }

// Sentence returns a short capitalized sentence of 4 to 9 words.
func (g *Generator) Sentence() string {
	n := 4 + g.rng.Intn(6)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = g.pick(words)
	}
	s := strings.Join(parts, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

// Choice returns a uniform index in [0, n). Callers use it to sample one
// element of a key set per row.
func (g *Generator) Choice(n int) int { return g.rng.Intn(n) }

// IntBetween returns an integer in [min, max] inclusive.
func (g *Generator) IntBetween(min, max int) int {
	return min + g.rng.Intn(max-min+1)
}

// AmountBetween returns a real number in [min, max) rounded to 2 decimals.
func (g *Generator) AmountBetween(min, max float64) float64 {
	v := min + g.rng.Float64()*(max-min)
	return math.Round(v*100) / 100
}

var firstNames = []string{
	"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael",
	"Linda", "David", "Elizabeth", "William", "Barbara", "Richard", "Susan",
	"Joseph", "Jessica", "Thomas", "Sarah", "Charles", "Karen", "Daniel",
	"Nancy", "Matthew", "Lisa", "Anthony", "Betty", "Mark", "Margaret",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
	"Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez",
	"Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin",
	"Lee", "Perez", "Thompson", "White", "Harris", "Sanchez", "Clark",
}

var streetSuffixes = []string{
	"Street", "Avenue", "Boulevard", "Drive", "Lane", "Road", "Court", "Way",
}

var cities = []string{
	"Springfield", "Riverton", "Fairview", "Kingston", "Ashland", "Burlington",
	"Clayton", "Dayton", "Easton", "Franklin", "Georgetown", "Hamilton",
	"Jackson", "Lakeview", "Madison", "Newport", "Oakland", "Princeton",
	"Salem", "Trenton",
}

var stateCodes = []string{
	"AZ", "CA", "CO", "FL", "GA", "IL", "MA", "MI", "NC", "NJ", "NY", "OH",
	"OR", "PA", "TX", "WA",
}

var emailDomains = []string{
	"example.com", "example.org", "example.net", "mail.example.com",
}

var companySuffixes = []string{
	"Inc", "LLC", "Group", "Holdings", "Industries", "Partners", "Co",
}

var words = []string{
	"amber", "basket", "cedar", "dawn", "ember", "fable", "garnet", "harbor",
	"iris", "jasper", "kettle", "lantern", "meadow", "north", "orchard",
	"pebble", "quartz", "ridge", "sable", "timber", "umber", "valley",
	"willow", "yarrow", "zephyr", "anchor", "breeze", "canyon", "drift",
	"ellipse", "fjord", "grove", "hollow", "inlet", "juniper", "knoll",
}
