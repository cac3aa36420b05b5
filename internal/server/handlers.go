package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/planner"
	"github.com/chasemp/mealplanner/internal/service"
)

func (s *Server) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) health(c *gin.Context) {
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		s.fail(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listRecipes(c *gin.Context) {
	recipes, err := service.LoadRecipes(s.db)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	c.JSON(http.StatusOK, recipes)
}

// dateRange validates the optional from/to query parameters.
func dateRange(c *gin.Context) (string, string, error) {
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	for _, v := range []string{from, to} {
		if v == "" {
			continue
		}
		if _, err := planner.ParseDate(v); err != nil {
			return "", "", err
		}
	}
	return from, to, nil
}

func (s *Server) listMeals(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	filter := service.MealFilter{From: from, To: to, Batch: c.Query("batch")}
	if raw := c.Query("meal_type"); raw != "" {
		mt, err := model.ParseMealType(raw)
		if err != nil {
			s.fail(c, http.StatusBadRequest, err)
			return
		}
		filter.MealType = mt
	}
	meals, err := service.ListScheduledMeals(s.db, filter)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if meals == nil {
		meals = []model.ScheduledMeal{}
	}
	c.JSON(http.StatusOK, meals)
}

type planRequest struct {
	Recipes      []string `json:"recipes"`
	StartDate    string   `json:"start_date"`
	Weeks        *int     `json:"weeks"`
	MealsPerWeek *int     `json:"meals_per_week"`
	SpacingDays  *int     `json:"spacing_days"`
	MealType     string   `json:"meal_type"`
}

func (s *Server) generatePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	defaults, err := service.PlannerDefaults(s.db, s.planner)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	in := service.GeneratePlanInput{
		Recipes:      req.Recipes,
		StartDate:    s.now(),
		Weeks:        defaults.Weeks,
		MealsPerWeek: defaults.MealsPerWeek,
		SpacingDays:  defaults.SpacingDays,
		MealType:     defaults.MealType,
		Logger:       s.log,
	}
	if req.StartDate != "" {
		start, err := planner.ParseDate(req.StartDate)
		if err != nil {
			s.fail(c, http.StatusBadRequest, err)
			return
		}
		in.StartDate = start
	}
	if req.Weeks != nil {
		in.Weeks = *req.Weeks
	}
	if req.MealsPerWeek != nil {
		in.MealsPerWeek = *req.MealsPerWeek
	}
	if req.SpacingDays != nil {
		in.SpacingDays = *req.SpacingDays
	}
	if req.MealType != "" {
		mt, err := model.ParseMealType(req.MealType)
		if err != nil {
			s.fail(c, http.StatusBadRequest, err)
			return
		}
		in.MealType = mt
	}

	res, err := service.GeneratePlan(s.db, in)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	s.log.Info("plan generated over http", zap.String("batch", res.Batch), zap.Int("meals", len(res.Meals)))
	c.JSON(http.StatusCreated, res)
}

func (s *Server) groceryList(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	scale, err := boolQuery(c, "scale")
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	grouped, err := boolQuery(c, "grouped")
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	list, err := service.BuildGroceryList(s.db, service.GroceryListInput{From: from, To: to, ScaleServings: scale})
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if grouped {
		c.JSON(http.StatusOK, gin.H{"from": list.From, "to": list.To, "meals": list.Meals, "groups": list.Groups()})
		return
	}
	items := list.Items
	if items == nil {
		items = []model.GroceryItem{}
	}
	c.JSON(http.StatusOK, gin.H{"from": list.From, "to": list.To, "meals": list.Meals, "items": items})
}

func (s *Server) listPantry(c *gin.Context) {
	rows, err := service.ListPantry(s.db)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if rows == nil {
		rows = []service.PantryRow{}
	}
	c.JSON(http.StatusOK, rows)
}

func boolQuery(c *gin.Context, key string) (bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q", key, raw)
	}
	return v, nil
}
