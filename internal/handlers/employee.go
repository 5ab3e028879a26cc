package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"asset-register/internal/database"
	"asset-register/internal/middleware"
	"asset-register/internal/models"
)

type employeeForm struct {
	EmployeeNo string `form:"employee_no" json:"employee_no"`
	FullName   string `form:"full_name" json:"full_name"`
	Department string `form:"department" json:"department"`
	Email      string `form:"email" json:"email"`
	Active     *bool  `form:"active" json:"active"`
}

func ListEmployees(c *gin.Context) {
	q := database.DB.Order("employee_no asc")
	if dept := c.Query("department"); dept != "" {
		q = q.Where("department = ?", dept)
	}
	if c.Query("active") == "1" {
		q = q.Where("active = true")
	}

	var employees []models.Employee
	if err := q.Find(&employees).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}

func ShowEmployee(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var employee models.Employee
	if err := database.DB.First(&employee, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}

	// assets currently in the employee's hands
	var assigned []models.Asset
	database.DB.Where("assigned_to = ?", employee.ID).Order("asset_id asc").Find(&assigned)

	summaries := make([]gin.H, 0, len(assigned))
	for _, a := range assigned {
		summaries = append(summaries, gin.H{
			"id":       a.ID,
			"asset_id": a.AssetID,
			"category": a.Category,
			"status":   a.Status,
		})
	}

	c.JSON(http.StatusOK, gin.H{"employee": employee, "assets": summaries})
}

func CreateEmployee(c *gin.Context) {
	var form employeeForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}

	form.EmployeeNo = strings.TrimSpace(form.EmployeeNo)
	form.FullName = strings.TrimSpace(form.FullName)

	if form.EmployeeNo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employee_no is required"})
		return
	}
	if len(form.FullName) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "full_name is too short"})
		return
	}

	var count int64
	database.DB.Model(&models.Employee{}).
		Where("employee_no = ?", form.EmployeeNo).
		Count(&count)
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employee_no already exists"})
		return
	}

	if form.Email != "" {
		database.DB.Model(&models.Employee{}).
			Where("LOWER(email) = LOWER(?)", form.Email).
			Count(&count)
		if count > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already exists"})
			return
		}
	}

	employee := models.Employee{
		EmployeeNo: form.EmployeeNo,
		FullName:   form.FullName,
		Department: strings.TrimSpace(form.Department),
		Email:      strings.TrimSpace(form.Email),
		Active:     true,
	}
	if err := database.DB.Create(&employee).Error; err != nil {
		respondError(c, err)
		return
	}

	if user, ok := middleware.CurrentUser(c); ok {
		database.CreateAuditLog(user.ID, "employee", employee.ID, "create",
			gin.H{"employee_no": employee.EmployeeNo})
	}

	c.JSON(http.StatusCreated, employee)
}

func UpdateEmployee(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var employee models.Employee
	if err := database.DB.First(&employee, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}

	var form employeeForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}

	form.EmployeeNo = strings.TrimSpace(form.EmployeeNo)
	form.FullName = strings.TrimSpace(form.FullName)

	if form.EmployeeNo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employee_no is required"})
		return
	}
	if len(form.FullName) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "full_name is too short"})
		return
	}

	if form.EmployeeNo != employee.EmployeeNo {
		var count int64
		database.DB.Model(&models.Employee{}).
			Where("employee_no = ? AND id <> ?", form.EmployeeNo, employee.ID).
			Count(&count)
		if count > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "employee_no already exists"})
			return
		}
	}

	if form.Email != "" && !strings.EqualFold(form.Email, employee.Email) {
		var count int64
		database.DB.Model(&models.Employee{}).
			Where("LOWER(email) = LOWER(?) AND id <> ?", form.Email, employee.ID).
			Count(&count)
		if count > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already exists"})
			return
		}
	}

	employee.EmployeeNo = form.EmployeeNo
	employee.FullName = form.FullName
	employee.Department = strings.TrimSpace(form.Department)
	employee.Email = strings.TrimSpace(form.Email)
	if form.Active != nil {
		employee.Active = *form.Active
	}

	if err := database.DB.Save(&employee).Error; err != nil {
		respondError(c, err)
		return
	}

	if user, ok := middleware.CurrentUser(c); ok {
		database.CreateAuditLog(user.ID, "employee", employee.ID, "update",
			gin.H{"employee_no": employee.EmployeeNo})
	}

	c.JSON(http.StatusOK, employee)
}
