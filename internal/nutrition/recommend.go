package nutrition

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/stats"
	"golang.org/x/sync/errgroup"
)

// DefaultExcludeRecentDays keeps meals eaten in the last few days out of
// the recommendations.
const DefaultExcludeRecentDays = 3

// minMealNutrients is the fewest logged nutrients a meal needs to be scored.
const minMealNutrients = 3

// NoEligibleMeals is reported in metadata when nothing could be scored.
const NoEligibleMeals = "No eligible meals found"

// RecommendInput carries one recommendation request.
type RecommendInput struct {
	Now               time.Time
	Gaps              map[string]float64
	Goal              model.Goal
	Meals             []model.Meal
	Priorities        []string
	TDEE              float64
	ExcludeRecentDays int
}

// NutrientAmount is a named amount in the nutrient's logged unit.
type NutrientAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// RecommendedMeal is one ranked historical meal.
type RecommendedMeal struct {
	Timestamp     time.Time          `json:"timestamp"`
	PercentDaily  map[string]float64 `json:"percent_daily"`
	Name          string             `json:"name"`
	MealID        string             `json:"meal_id"`
	GoalAlignment string             `json:"goal_alignment"`
	Reason        string             `json:"reason"`
	KeyNutrients  []NutrientAmount   `json:"key_nutrients"`
	Score         float64            `json:"score"`
}

// Metadata describes how a recommendation was produced.
type Metadata struct {
	Goal                    model.Goal `json:"goal,omitempty"`
	Error                   string     `json:"error,omitempty"`
	TDEE                    float64    `json:"tdee,omitempty"`
	TotalMealsAnalyzed      int        `json:"total_meals_analyzed"`
	MealsWithPositiveScore  int        `json:"meals_with_positive_score"`
	RecommendationsReturned int        `json:"recommendations_returned"`
}

// Recommendation is the ranked meal list with gap coverage.
type Recommendation struct {
	Coverage         map[string]float64 `json:"nutrient_coverage_summary"`
	RecommendedMeals []RecommendedMeal  `json:"recommended_meals"`
	Metadata         Metadata           `json:"recommendation_metadata"`
}

// TotalCoverageKey holds the mean of the per-nutrient coverage percentages.
const TotalCoverageKey = "total_gap_filled_pct"

// Recommender ranks historical meals against nutrient gaps.
type Recommender struct {
	logger      *slog.Logger
	topN        int
	concurrency int
}

// NewRecommender creates a Recommender returning up to topN meals and
// scoring with at most concurrency goroutines.
func NewRecommender(topN, concurrency int) *Recommender {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Recommender{topN: topN, concurrency: concurrency, logger: slog.Default()}
}

// mealProfile is a meal's nutrients under canonical names, in logged order.
type mealProfile struct {
	amounts map[string]float64
	meal    model.Meal
	order   []string
}

func profile(meal model.Meal) mealProfile {
	p := mealProfile{meal: meal, amounts: make(map[string]float64, len(meal.Nutrients))}
	for _, n := range meal.Nutrients {
		key := CanonicalNutrient(n.Name)
		if _, seen := p.amounts[key]; !seen {
			p.order = append(p.order, key)
		}
		p.amounts[key] = n.Amount
	}
	return p
}

type scoredMeal struct {
	profile mealProfile
	score   float64
}

// Recommend filters, scores and ranks in.Meals. An empty eligible set is a
// normal outcome and yields a zero result rather than an error.
func (r *Recommender) Recommend(ctx context.Context, in RecommendInput) (*Recommendation, error) {
	if in.ExcludeRecentDays < 0 {
		return nil, fmt.Errorf("%w: exclude recent days must not be negative", common.ErrInvalidConfig)
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	eligible := EligibleMeals(in.Meals, now, in.ExcludeRecentDays)
	if len(eligible) == 0 {
		r.logger.Info("no eligible meals for recommendation", "meals", len(in.Meals))
		return emptyRecommendation(), nil
	}

	scores := make([]float64, len(eligible))
	profiles := make([]mealProfile, len(eligible))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, meal := range eligible {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := profile(meal)
			profiles[i] = p
			scores[i] = MatchScore(p.amounts, in.Gaps, in.Priorities, in.Goal, in.TDEE)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to score meals: %w", err)
	}

	var ranked []scoredMeal
	for i, s := range scores {
		if s > 0 {
			ranked = append(ranked, scoredMeal{profile: profiles[i], score: s})
		}
	}
	positive := len(ranked)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > r.topN {
		ranked = ranked[:r.topN]
	}

	meals := make([]RecommendedMeal, 0, len(ranked))
	for _, sm := range ranked {
		key := keyNutrients(sm.profile, in.Gaps, in.Priorities)
		meals = append(meals, RecommendedMeal{
			Name:          sm.profile.meal.Name,
			Score:         sm.score,
			KeyNutrients:  key,
			GoalAlignment: GoalAlignment(sm.profile.amounts, in.Goal),
			Reason:        Reason(key, in.Gaps, in.Goal),
			MealID:        sm.profile.meal.ID,
			Timestamp:     sm.profile.meal.Timestamp,
			PercentDaily:  PercentOfDaily(sm.profile.amounts, in.TDEE),
		})
	}

	rec := &Recommendation{
		RecommendedMeals: meals,
		Coverage:         coverage(ranked, in.Gaps, in.Priorities),
		Metadata: Metadata{
			TotalMealsAnalyzed:      len(eligible),
			MealsWithPositiveScore:  positive,
			RecommendationsReturned: len(meals),
			Goal:                    in.Goal,
			TDEE:                    in.TDEE,
		},
	}

	r.logger.Info("meal recommendations ranked",
		"eligible", len(eligible),
		"positive", positive,
		"returned", len(meals))

	return rec, nil
}

func emptyRecommendation() *Recommendation {
	return &Recommendation{
		RecommendedMeals: []RecommendedMeal{},
		Coverage:         map[string]float64{TotalCoverageKey: 0},
		Metadata:         Metadata{Error: NoEligibleMeals},
	}
}

// EligibleMeals keeps meals logged before now minus excludeDays that have a
// name and at least three nutrients.
func EligibleMeals(meals []model.Meal, now time.Time, excludeDays int) []model.Meal {
	cutoff := now.AddDate(0, 0, -excludeDays)
	out := make([]model.Meal, 0, len(meals))
	for _, m := range meals {
		if m.Timestamp.IsZero() || m.Timestamp.After(cutoff) {
			continue
		}
		if strings.TrimSpace(m.Name) == "" || len(m.Nutrients) < minMealNutrients {
			continue
		}
		out = append(out, m)
	}
	return out
}

func dailyTable(tdee float64) map[string]float64 {
	table := make(map[string]float64, len(DailyRecommendations))
	for k, v := range DailyRecommendations {
		table[k] = v
	}
	table[model.KeyCalories] = tdee
	return table
}

// PercentOfDaily expresses each recognized nutrient as a percentage of its
// daily recommendation, using tdee for calories.
func PercentOfDaily(amounts map[string]float64, tdee float64) map[string]float64 {
	table := dailyTable(tdee)
	out := make(map[string]float64)
	for k, v := range amounts {
		if rec, ok := table[k]; ok && rec > 0 {
			out[k] = v / rec * 100
		}
	}
	return out
}

// scorable restricts amounts to nutrients with a positive daily recommendation.
func scorable(amounts map[string]float64, tdee float64) map[string]float64 {
	table := dailyTable(tdee)
	out := make(map[string]float64, len(amounts))
	for k, v := range amounts {
		if rec, ok := table[k]; ok && rec > 0 {
			out[k] = v
		}
	}
	return out
}

// Contribution is the share of gap a meal amount closes, capped at 1.
func Contribution(amount, gap float64) float64 {
	return min(amount/gap, 1.0)
}

// MatchScore scores one meal's canonical nutrient amounts against gaps,
// applies the goal bias and rounds to three places. Gaps are summed in
// nutrient name order so equal inputs give bit-identical scores.
func MatchScore(amounts, gaps map[string]float64, priorities []string, goal model.Goal, tdee float64) float64 {
	nutrients := scorable(amounts, tdee)

	var score float64
	for _, n := range slices.Sorted(maps.Keys(gaps)) {
		gap := gaps[n]
		if gap <= 0 {
			continue
		}
		amount, ok := nutrients[n]
		if !ok {
			continue
		}
		weight := MealScoreWeights.Weight(goal, n)
		if slices.Contains(priorities, n) {
			weight *= PriorityBoost
		}
		score += Contribution(amount, gap) * weight
	}

	return stats.Round(GoalBias(score, nutrients, goal, tdee), 3)
}

// GoalBias adjusts a base score for goal-specific meal shape.
func GoalBias(score float64, nutrients map[string]float64, goal model.Goal, tdee float64) float64 {
	calories := nutrients[model.KeyCalories]
	protein := nutrients[model.KeyProtein]

	switch goal {
	case model.GoalWeightLoss:
		if calories > tdee/3 {
			score *= 0.8
		}
		if nutrients[KeySaturatedFat] > 7 {
			score *= 0.85
		}
		if protein > 20 && calories < tdee/3 {
			score *= 1.15
		}
	case model.GoalMuscleGain:
		if protein > 25 && calories > 400 {
			score *= 1.2
		} else if protein > 20 {
			score *= 1.1
		}
	default:
		if protein > 15 && nutrients[model.KeyCarbs] > 30 && nutrients[model.KeyFat] > 10 {
			score *= 1.1
		}
	}
	return score
}

// keyNutrients lists the priority nutrients the meal helps with, then other
// nutrients it contains, up to five in total.
func keyNutrients(p mealProfile, gaps map[string]float64, priorities []string) []NutrientAmount {
	const limit = 5
	var out []NutrientAmount
	picked := make(map[string]bool)

	for _, n := range priorities[:min(limit, len(priorities))] {
		amount, ok := p.amounts[n]
		if !ok || gaps[n] <= 0 {
			continue
		}
		out = append(out, NutrientAmount{Name: n, Amount: stats.Round(amount, 2)})
		picked[n] = true
	}
	for _, n := range p.order {
		if len(out) >= limit {
			break
		}
		if picked[n] || p.amounts[n] <= 0 {
			continue
		}
		out = append(out, NutrientAmount{Name: n, Amount: stats.Round(p.amounts[n], 2)})
		picked[n] = true
	}
	return out
}

// Reason explains a recommendation in at most three short clauses.
func Reason(key []NutrientAmount, gaps map[string]float64, goal model.Goal) string {
	var contributors []string
	var calories, protein float64
	for _, k := range key {
		switch k.Name {
		case model.KeyCalories:
			calories = k.Amount
		case model.KeyProtein:
			protein = k.Amount
		}
		if gap := gaps[k.Name]; gap > 0 && k.Amount/gap*100 > 20 {
			contributors = append(contributors, model.DisplayName(k.Name))
		}
	}

	var reasons []string
	if len(contributors) > 0 {
		reasons = append(reasons, "Rich in "+strings.Join(contributors[:min(3, len(contributors))], ", "))
	}
	switch {
	case goal == model.GoalWeightLoss && calories < 400:
		reasons = append(reasons, "moderate calories")
	case goal == model.GoalMuscleGain && calories > 400:
		reasons = append(reasons, "energy-dense")
	}
	if protein > 20 {
		reasons = append(reasons, "high protein")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "balanced nutrition")
	}
	return strings.Join(reasons[:min(3, len(reasons))], "; ")
}

// GoalAlignment rates a meal's calories and protein against goal.
func GoalAlignment(amounts map[string]float64, goal model.Goal) string {
	calories := amounts[model.KeyCalories]
	protein := amounts[model.KeyProtein]

	switch goal {
	case model.GoalWeightLoss:
		switch {
		case calories < 350 && protein > 15:
			return "excellent for weight loss"
		case calories < 500:
			return "good for weight loss"
		default:
			return "moderate for weight loss"
		}
	case model.GoalMuscleGain:
		switch {
		case protein > 25 && calories > 400:
			return "excellent for muscle gain"
		case protein > 20:
			return "good for muscle gain"
		default:
			return "moderate for muscle gain"
		}
	default:
		if protein > 15 && calories < 600 {
			return "well-balanced for maintenance"
		}
		return "suitable for maintenance"
	}
}

// coverage reports how much of each positive priority gap the ranked meals
// fill together, capped at 100%, plus the mean under TotalCoverageKey.
func coverage(ranked []scoredMeal, gaps map[string]float64, priorities []string) map[string]float64 {
	totals := make(map[string]float64)
	for _, sm := range ranked {
		for _, n := range sm.profile.meal.Nutrients {
			totals[CanonicalNutrient(n.Name)] += n.Amount
		}
	}

	out := make(map[string]float64)
	var sum float64
	for _, n := range priorities {
		gap := gaps[n]
		if gap <= 0 {
			continue
		}
		key := n + "_gap_filled_pct"
		if _, dup := out[key]; dup {
			continue
		}
		pct := stats.Round(min(totals[n]/gap*100, 100), 1)
		out[key] = pct
		sum += pct
	}

	if len(out) == 0 {
		out[TotalCoverageKey] = 0
		return out
	}
	out[TotalCoverageKey] = stats.Round(sum/float64(len(out)), 1)
	return out
}
