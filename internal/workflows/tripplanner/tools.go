package tripplanner

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"

	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
)

const (
	dailyCost        = 120 // per person per day
	flightCost       = 800 // per person
	premiumSurcharge = 200 // Paris and London
)

var itineraries = map[string][]string{
	"paris": {
		"Day 1: Eiffel Tower, Seine River cruise",
		"Day 2: Louvre Museum, Notre-Dame area",
		"Day 3: Montmartre, Sacré-Cœur",
		"Day 4: Versailles day trip",
		"Day 5: Champs-Élysées, Arc de Triomphe",
	},
	"tokyo": {
		"Day 1: Shibuya, Harajuku districts",
		"Day 2: Senso-ji Temple, Asakusa",
		"Day 3: Imperial Palace, Ginza",
		"Day 4: Day trip to Mount Fuji",
		"Day 5: Tsukiji Market, Tokyo Tower",
	},
	"rome": {
		"Day 1: Colosseum, Roman Forum",
		"Day 2: Vatican City, St. Peter's",
		"Day 3: Trevi Fountain, Spanish Steps",
		"Day 4: Tivoli Gardens day trip",
		"Day 5: Trastevere neighborhood",
	},
}

var activities = map[string]string{
	"food":     "Food experiences in %s: Local markets, cooking classes, food tours, traditional restaurants",
	"culture":  "Cultural activities in %s: Museums, historical sites, art galleries, local festivals",
	"nature":   "Nature activities near %s: Parks, gardens, hiking trails, scenic viewpoints",
	"shopping": "Shopping in %s: Local markets, boutiques, shopping districts, souvenir shops",
}

func dollars(v int) string {
	return "$" + humanize.Comma(int64(v))
}

// TripCost estimates accommodation, meals and flights.
func TripCost(destination string, days, people int) string {
	stay := dailyCost * days * people
	flights := flightCost * people
	return fmt.Sprintf("Cost breakdown for %s (%d days, %d people):\n"+
		"- Accommodation & meals: %s\n"+
		"- Flights: %s\n"+
		"- Total estimated cost: %s",
		destination, days, people, dollars(stay), dollars(flights), dollars(stay+flights))
}

func perPersonCost(destination string, days int) int {
	cost := dailyCost*days + flightCost
	d := strings.ToLower(destination)
	if strings.Contains(d, "paris") || strings.Contains(d, "london") {
		cost += premiumSurcharge
	}
	return cost
}

// CompareCosts compares the per-person cost of two destinations.
func CompareCosts(first, second string, days int) string {
	a, b := perPersonCost(first, days), perPersonCost(second, days)
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return fmt.Sprintf("Cost comparison for %d days:\n- %s: %s\n- %s: %s\n- Difference: %s",
		days, first, dollars(a), second, dollars(b), dollars(diff))
}

// Itinerary returns up to days entries of a day-by-day plan for city.
func Itinerary(city string, days int) string {
	plan, ok := itineraries[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		plan = []string{
			"Day 1: Explore " + city + " city center",
			"Day 2: Visit " + city + " museums",
			"Day 3: Local attractions in " + city,
			"Day 4: Day trip from " + city,
			"Day 5: Shopping and relaxation",
		}
	}
	plan = plan[:max(0, min(days, len(plan)))]
	return fmt.Sprintf("%d-day itinerary for %s:\n%s", days, titleCase(city), strings.Join(plan, "\n"))
}

// SuggestActivities suggests things to do in city for an interest.
func SuggestActivities(city, interest string) string {
	if format, ok := activities[strings.ToLower(strings.TrimSpace(interest))]; ok {
		return fmt.Sprintf(format, city)
	}
	return fmt.Sprintf("General activities in %s: Sightseeing, local experiences, guided tours", city)
}

func titleCase(s string) string {
	upper := true
	return strings.Map(func(r rune) rune {
		if !unicode.IsLetter(r) {
			upper = true
			return r
		}
		if upper {
			upper = false
			return unicode.ToUpper(r)
		}
		return unicode.ToLower(r)
	}, s)
}

type costArgs struct {
	Destination string `json:"destination" jsonschema:"Where the trip goes."`
	Days        int    `json:"days" jsonschema:"Number of days."`
	People      int    `json:"people" jsonschema:"Number of travellers."`
}

type compareArgs struct {
	Destination1 string `json:"destination1" jsonschema:"First destination."`
	Destination2 string `json:"destination2" jsonschema:"Second destination."`
	Days         int    `json:"days" jsonschema:"Number of days."`
}

type itineraryArgs struct {
	City string `json:"city" jsonschema:"City to plan for."`
	Days int    `json:"days" jsonschema:"Number of days."`
}

type activityArgs struct {
	City     string `json:"city" jsonschema:"City to visit."`
	Interest string `json:"interest" jsonschema:"One of food, culture, nature or shopping."`
}

func positive(field string, v int) error {
	if v <= 0 {
		return fmt.Errorf("%s must be a positive number", field)
	}
	return nil
}

var (
	budgetTools = []*llm.ToolFunc{
		llm.MustTool("calculate_trip_cost", "Calculate estimated travel costs for a trip.",
			func(_ context.Context, a costArgs) (string, error) {
				if err := positive("days", a.Days); err != nil {
					return "", err
				}
				if err := positive("people", a.People); err != nil {
					return "", err
				}
				return TripCost(a.Destination, a.Days, a.People), nil
			}),
		llm.MustTool("compare_costs", "Compare costs between two destinations.",
			func(_ context.Context, a compareArgs) (string, error) {
				if err := positive("days", a.Days); err != nil {
					return "", err
				}
				return CompareCosts(a.Destination1, a.Destination2, a.Days), nil
			}),
	}

	plannerTools = []*llm.ToolFunc{
		llm.MustTool("plan_trip_itinerary", "Create a detailed trip itinerary for a city.",
			func(_ context.Context, a itineraryArgs) (string, error) {
				if err := positive("days", a.Days); err != nil {
					return "", err
				}
				return Itinerary(a.City, a.Days), nil
			}),
		llm.MustTool("suggest_activities", "Suggest activities based on interests.",
			func(_ context.Context, a activityArgs) (string, error) {
				return SuggestActivities(a.City, a.Interest), nil
			}),
	}
)
