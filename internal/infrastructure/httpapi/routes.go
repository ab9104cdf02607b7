package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/legis/internal/application/handlers"
	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/services"
)

type defineVariableRequest struct {
	Key           string `json:"key" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Type          string `json:"type" binding:"required"`
	Unit          string `json:"unit"`
	Value         string `json:"value"`
	EffectiveFrom string `json:"effective_from"`
	Reason        string `json:"reason"`
}

type setVariableRequest struct {
	Value           string `json:"value" binding:"required"`
	EffectiveFrom   string `json:"effective_from"`
	Force           bool   `json:"force"`
	Reason          string `json:"reason"`
	ExpectedVersion int64  `json:"expected_version"`
}

type registerPointRequest struct {
	TreeKey             string `json:"tree_key"`
	TreeName            string `json:"tree_name"`
	DataPointName       string `json:"data_point_name"`
	Criticality         string `json:"criticality"`
	UpdateCategory      string `json:"update_category"`
	VariableKey         string `json:"variable_key"`
	CurrentValue        string `json:"current_value"`
	AutoUpdateable      bool   `json:"auto_updateable"`
	VerificationURL     string `json:"verification_url"`
	LastVerified        string `json:"last_verified"`
	NextVerificationDue string `json:"next_verification_due"`
}

type reclassifyPointRequest struct {
	Criticality     string `json:"criticality"`
	UpdateCategory  string `json:"update_category"`
	ExpectedVersion int64  `json:"expected_version"`
}

type verifyPointRequest struct {
	NewValue        *string `json:"new_value"`
	EffectiveFrom   string  `json:"effective_from"`
	ExpectedVersion int64   `json:"expected_version"`
	VerifiedBy      string  `json:"verified_by"`
}

type deactivatePointRequest struct {
	Reason          string `json:"reason"`
	ExpectedVersion int64  `json:"expected_version"`
}

type renderRequest struct {
	Template string `json:"template"`
	AsOf     string `json:"as_of"`
}

func (a *api) listOverdue(c *gin.Context) {
	result, err := a.points.HandleOverdue(c.Request.Context())
	a.reply(c, result, err)
}

func (a *api) listDue(c *gin.Context) {
	days, err := queryInt(c, "days", 7)
	if err != nil {
		respondInvalid(c, err)
		return
	}
	result, err := a.points.HandleDueWithin(c.Request.Context(), days)
	a.reply(c, result, err)
}

func (a *api) listDueThisWeek(c *gin.Context) {
	result, err := a.points.HandleDueThisWeek(c.Request.Context())
	a.reply(c, result, err)
}

func (a *api) statistics(c *gin.Context) {
	stats, err := a.points.HandleStatistics(c.Request.Context())
	if err != nil {
		respondError(c, a.logger, err)
		return
	}
	if stats == nil {
		stats = []entities.Statistic{}
	}
	respondOK(c, gin.H{"statistics": stats})
}

func (a *api) listVariables(c *gin.Context) {
	result, err := a.variables.HandleList(c.Request.Context())
	a.reply(c, result, err)
}

func (a *api) searchVariables(c *gin.Context) {
	limit, err := queryInt(c, "limit", services.DefaultSearchLimit)
	if err != nil {
		respondInvalid(c, err)
		return
	}
	hits, err := a.variables.HandleSearch(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, a.logger, err)
		return
	}
	respondOK(c, gin.H{"results": hits})
}

func (a *api) reindexVariables(c *gin.Context) {
	n, err := a.variables.HandleReindex(c.Request.Context())
	if err != nil {
		respondError(c, a.logger, err)
		return
	}
	respondOK(c, gin.H{"indexed": n})
}

func (a *api) getVariable(c *gin.Context) {
	v, err := a.variables.HandleGet(c.Request.Context(), c.Param("key"))
	a.reply(c, v, err)
}

func (a *api) variableHistory(c *gin.Context) {
	versions, err := a.variables.HandleHistory(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, a.logger, err)
		return
	}
	respondOK(c, gin.H{"versions": versions})
}

func (a *api) defineVariable(c *gin.Context) {
	var req defineVariableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	effective, err := services.ParseEffectiveDate(req.EffectiveFrom)
	if err != nil {
		respondError(c, a.logger, &entities.ValidationError{Field: "effective_from", Message: err.Error()})
		return
	}

	v, err := a.variables.HandleDefine(c.Request.Context(), services.DefineInput{
		Key:           req.Key,
		Name:          req.Name,
		Type:          entities.ValueType(req.Type),
		Unit:          req.Unit,
		Value:         req.Value,
		EffectiveFrom: effective,
		Reason:        req.Reason,
	})
	if err != nil {
		respondError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (a *api) setVariable(c *gin.Context) {
	var req setVariableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	effective, err := services.ParseEffectiveDate(req.EffectiveFrom)
	if err != nil {
		respondError(c, a.logger, &entities.ValidationError{Field: "effective_from", Message: err.Error()})
		return
	}

	v, err := a.variables.HandleSet(c.Request.Context(), services.SetInput{
		Key:             c.Param("key"),
		Value:           req.Value,
		EffectiveFrom:   effective,
		Force:           req.Force,
		Reason:          req.Reason,
		ExpectedVersion: req.ExpectedVersion,
	})
	a.reply(c, v, err)
}

func (a *api) listPoints(c *gin.Context) {
	filter := entities.PointFilter{
		Category:        c.Query("category"),
		TreeKey:         c.Query("tree_key"),
		VariableKey:     c.Query("variable_key"),
		IncludeInactive: c.Query("include_inactive") == "true",
	}
	if raw := c.Query("criticality"); raw != "" {
		crit, err := entities.ParseCriticality(raw)
		if err != nil {
			respondError(c, a.logger, err)
			return
		}
		filter.Criticality = crit
	}
	result, err := a.points.HandleList(c.Request.Context(), filter)
	a.reply(c, result, err)
}

func (a *api) registerPoint(c *gin.Context) {
	var req registerPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	in := services.RegisterInput{
		TreeKey:         req.TreeKey,
		TreeName:        req.TreeName,
		DataPointName:   req.DataPointName,
		Criticality:     entities.Criticality(req.Criticality),
		UpdateCategory:  req.UpdateCategory,
		VariableKey:     req.VariableKey,
		CurrentValue:    req.CurrentValue,
		AutoUpdateable:  req.AutoUpdateable,
		VerificationURL: req.VerificationURL,
	}
	var err error
	if in.LastVerified, err = optionalDate("last_verified", req.LastVerified); err != nil {
		respondError(c, a.logger, err)
		return
	}
	if in.NextVerificationDue, err = optionalDate("next_verification_due", req.NextVerificationDue); err != nil {
		respondError(c, a.logger, err)
		return
	}

	p, err := a.points.HandleRegister(c.Request.Context(), in)
	if err != nil {
		respondError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (a *api) getPoint(c *gin.Context) {
	p, err := a.points.HandleGet(c.Request.Context(), c.Param("id"))
	a.reply(c, p, err)
}

func (a *api) reclassifyPoint(c *gin.Context) {
	var req reclassifyPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	p, err := a.points.HandleReclassify(c.Request.Context(), services.ReclassifyInput{
		PointID:         c.Param("id"),
		Criticality:     entities.Criticality(req.Criticality),
		UpdateCategory:  req.UpdateCategory,
		ExpectedVersion: req.ExpectedVersion,
	})
	a.reply(c, p, err)
}

func (a *api) verifyPoint(c *gin.Context) {
	var req verifyPointRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err)
			return
		}
	}
	effective, err := services.ParseEffectiveDate(req.EffectiveFrom)
	if err != nil {
		respondError(c, a.logger, &entities.ValidationError{Field: "effective_from", Message: err.Error()})
		return
	}

	p, err := a.points.HandleVerify(c.Request.Context(), services.VerifyInput{
		PointID:         c.Param("id"),
		NewValue:        req.NewValue,
		EffectiveFrom:   effective,
		ExpectedVersion: req.ExpectedVersion,
		VerifiedBy:      req.VerifiedBy,
	})
	a.reply(c, p, err)
}

func (a *api) deactivatePoint(c *gin.Context) {
	var req deactivatePointRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err)
			return
		}
	}
	p, err := a.points.HandleDeactivate(c.Request.Context(), services.DeactivateInput{
		PointID:         c.Param("id"),
		Reason:          req.Reason,
		ExpectedVersion: req.ExpectedVersion,
	})
	a.reply(c, p, err)
}

func (a *api) pointHistory(c *gin.Context) {
	entries, err := a.points.HandleHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, a.logger, err)
		return
	}
	respondOK(c, gin.H{"history": entries})
}

func (a *api) suggestValue(c *gin.Context) {
	s, err := a.points.HandleSuggest(c.Request.Context(), c.Param("id"))
	a.reply(c, s, err)
}

func (a *api) renderTemplate(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	asOf, err := services.ParseEffectiveDate(req.AsOf)
	if err != nil {
		respondError(c, a.logger, &entities.ValidationError{Field: "as_of", Message: err.Error()})
		return
	}

	result, err := a.render.Handle(c.Request.Context(), handlers.RenderRequest{Template: req.Template, AsOf: asOf})
	a.reply(c, result, err)
}

func (a *api) reply(c *gin.Context, payload any, err error) {
	if err != nil {
		respondError(c, a.logger, err)
		return
	}
	respondOK(c, payload)
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func optionalDate(field, raw string) (*time.Time, error) {
	t, err := services.ParseEffectiveDate(raw)
	if err != nil {
		return nil, &entities.ValidationError{Field: field, Message: err.Error()}
	}
	if t.IsZero() {
		return nil, nil
	}
	return &t, nil
}
