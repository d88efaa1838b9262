package testdata

// Test accounts and catalog served by MockServer.

// StudentPassword is the password MockServer accepts for Student.
const StudentPassword = "correct-horse"

// StudentToken is the bearer token MockServer issues to Student.
const StudentToken = "test-token-student"

// Student is the account MockServer logs in.
var Student = map[string]interface{}{
	"id":        1,
	"username":  "johndoe",
	"email":     "john@example.com",
	"firstName": "John",
	"lastName":  "Doe",
	"role":      "student",
}

// Courses is the catalog MockServer serves.
var Courses = []map[string]interface{}{
	{
		"id":          1,
		"title":       "Modern Web Development",
		"category":    "development",
		"level":       "beginner",
		"price":       49.99,
		"instructor":  "Sarah Chen",
		"description": "Build production web applications.",
	},
	{
		"id":          2,
		"title":       "UI Design Fundamentals",
		"category":    "design",
		"level":       "beginner",
		"price":       39.99,
		"instructor":  "Marcus Webb",
		"description": "Typography, color and hierarchy.",
	},
}
