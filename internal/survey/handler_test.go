package survey_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/survey"
	"github.com/Kyz7/formbuilder/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type author struct {
	user  *models.User
	token string
}

func newAuthor(t *testing.T, env *testutils.TestEnv, username string) author {
	u := testutils.CreateTestUser(t, env.DB, username, username+"@example.com", testutils.TestPassword, models.RoleAdmin)
	return author{user: u, token: testutils.GetAuthToken(t, u.ID, models.RoleAdmin)}
}

func textQuestion(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":          name,
		"question_type": "text",
		"properties":    map[string]interface{}{"label": name, "required": true},
	}
}

func radioQuestion(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":          name,
		"question_type": "radio",
		"properties": map[string]interface{}{
			"label": name,
			"choices": []map[string]interface{}{
				{"label": "Yes", "value": "yes", "marks": 1},
				{"label": "No", "value": "no"},
			},
		},
		"marks": 1,
	}
}

func block(name string, questions ...map[string]interface{}) map[string]interface{} {
	if questions == nil {
		questions = []map[string]interface{}{}
	}
	return map[string]interface{}{"name": name, "questions": questions}
}

func createSurvey(t *testing.T, env *testutils.TestEnv, a author, body map[string]interface{}) testutils.StandardResponse {
	resp, err := testutils.MakeRequest(env.App, "POST", "/surveys", body, a.token)
	require.NoError(t, err)
	require.Equal(t, 201, resp.Code, resp.Body.String())
	return testutils.AssertSuccess(t, resp)
}

func idOf(data map[string]interface{}) uint {
	id, _ := data["id"].(float64)
	return uint(id)
}

func TestCreateSurvey(t *testing.T) {
	env := testutils.SetupTestApp(t)
	a := newAuthor(t, env, "author_one")

	t.Run("Success - One block with one question is published", func(t *testing.T) {
		result := createSurvey(t, env, a, map[string]interface{}{
			"name":        "Onboarding",
			"description": "first week",
			"blocks":      []interface{}{block("Intro", textQuestion("Your name"))},
		})
		assert.Equal(t, survey.MsgPublished, result.Message)

		data := result.DataMap()
		assert.Equal(t, true, data["is_published"])
		blocks, _ := data["blocks"].([]interface{})
		require.Len(t, blocks, 1)
		questions, _ := blocks[0].(map[string]interface{})["questions"].([]interface{})
		require.Len(t, questions, 1)
	})

	t.Run("Success - One block with two questions is saved as draft", func(t *testing.T) {
		result := createSurvey(t, env, a, map[string]interface{}{
			"name":   "Feedback",
			"blocks": []interface{}{block("Main", textQuestion("Likes"), radioQuestion("Recommend"))},
		})
		assert.Equal(t, survey.MsgSavedAsDraft, result.Message)
		assert.Equal(t, false, result.DataMap()["is_published"])
	})

	t.Run("Success - Without blocks is a draft", func(t *testing.T) {
		result := createSurvey(t, env, a, map[string]interface{}{"name": "Empty"})
		assert.Equal(t, false, result.DataMap()["is_published"])
	})

	t.Run("Error - Asking to publish an unpublishable survey", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/surveys", map[string]interface{}{
			"name":         "Too Big",
			"is_published": true,
			"blocks":       []interface{}{block("A", textQuestion("q1")), block("B", textQuestion("q2"))},
		}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
		result := testutils.AssertError(t, resp, "POLICY_VIOLATION")
		assert.Equal(t, survey.MsgCannotPublish, result.Error.Message)

		var count int64
		env.DB.Model(&models.Survey{}).Where("name = ?", "Too Big").Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("Error - Duplicate name for the same author", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/surveys", map[string]interface{}{"name": "Onboarding"}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 409, resp.Code)
		result := testutils.AssertError(t, resp, "CONFLICT")
		assert.Equal(t, survey.MsgNameTaken, result.Error.Field("name"))
	})

	t.Run("Success - Another author may reuse the name", func(t *testing.T) {
		other := newAuthor(t, env, "author_two")
		createSurvey(t, env, other, map[string]interface{}{"name": "Onboarding"})
	})

	t.Run("Error - Duplicate block names in one request", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/surveys", map[string]interface{}{
			"name":   "Dup Blocks",
			"blocks": []interface{}{block("Same"), block("Same")},
		}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 409, resp.Code)

		var count int64
		env.DB.Model(&models.Survey{}).Where("name = ?", "Dup Blocks").Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("Error - Choice question without choices", func(t *testing.T) {
		q := radioQuestion("Empty radio")
		q["properties"] = map[string]interface{}{"label": "Empty radio"}
		resp, err := testutils.MakeRequest(env.App, "POST", "/surveys", map[string]interface{}{
			"name":   "Bad Radio",
			"blocks": []interface{}{block("Main", q)},
		}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
		result := testutils.AssertError(t, resp, "VALIDATION_ERROR")
		assert.NotEmpty(t, result.Error.Field("properties"))
	})

	t.Run("Error - Unknown question type", func(t *testing.T) {
		q := textQuestion("Odd")
		q["question_type"] = "slider"
		resp, err := testutils.MakeRequest(env.App, "POST", "/surveys", map[string]interface{}{
			"name":   "Odd Types",
			"blocks": []interface{}{block("Main", q)},
		}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
	})

	t.Run("Error - Missing name", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/surveys", map[string]interface{}{"description": "x"}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
		result := testutils.AssertError(t, resp, "VALIDATION_ERROR")
		assert.Equal(t, "name is required", result.Error.Field("name"))
	})

	t.Run("Error - Standard users cannot author", func(t *testing.T) {
		member := testutils.CreateTestUser(t, env.DB, "member_01", "member@example.com", testutils.TestPassword, models.RoleStandard)
		token := testutils.GetAuthToken(t, member.ID, models.RoleStandard)
		resp, err := testutils.MakeRequest(env.App, "POST", "/surveys", map[string]interface{}{"name": "Nope"}, token)
		assert.NoError(t, err)
		assert.Equal(t, 403, resp.Code)
	})
}

func TestSurveyOwnership(t *testing.T) {
	env := testutils.SetupTestApp(t)
	a := newAuthor(t, env, "author_one")
	b := newAuthor(t, env, "author_two")

	created := createSurvey(t, env, a, map[string]interface{}{
		"name":   "Private",
		"blocks": []interface{}{block("Intro", textQuestion("q1"))},
	})
	id := idOf(created.DataMap())
	url := fmt.Sprintf("/surveys/%d", id)

	t.Run("Success - Owner reads the full tree", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", url, nil, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		result := testutils.AssertSuccess(t, resp)
		assert.Equal(t, "Private", result.DataMap()["name"])
	})

	t.Run("Error - Other author gets not found", func(t *testing.T) {
		for _, req := range []struct{ method, url string }{
			{"GET", url},
			{"PUT", url},
			{"PATCH", url},
			{"DELETE", url},
			{"GET", url + "/blocks"},
		} {
			resp, err := testutils.MakeRequest(env.App, req.method, req.url, map[string]interface{}{"name": "Hijack"}, b.token)
			assert.NoError(t, err)
			assert.Equal(t, 404, resp.Code, "%s %s", req.method, req.url)
		}
	})

	t.Run("Success - List only shows own surveys", func(t *testing.T) {
		createSurvey(t, env, b, map[string]interface{}{"name": "Theirs"})

		resp, err := testutils.MakeRequest(env.App, "GET", "/surveys", nil, a.token)
		assert.NoError(t, err)
		result := testutils.AssertSuccess(t, resp)
		require.Len(t, result.DataList(), 1)
		assert.Equal(t, "Private", result.DataList()[0].(map[string]interface{})["name"])
		require.NotNil(t, result.Meta)
		assert.Equal(t, int64(1), result.Meta.Total)
	})

	t.Run("Error - Invalid id", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/surveys/abc", nil, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.Code)
	})
}

func TestUpdateAndStatus(t *testing.T) {
	env := testutils.SetupTestApp(t)
	a := newAuthor(t, env, "author_one")

	created := createSurvey(t, env, a, map[string]interface{}{"name": "Draft"})
	id := idOf(created.DataMap())
	url := fmt.Sprintf("/surveys/%d", id)

	t.Run("Success - Update of an empty survey stays draft", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PUT", url, map[string]interface{}{
			"name":         "Draft Renamed",
			"is_published": true,
		}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		result := testutils.AssertSuccess(t, resp)
		assert.Equal(t, survey.MsgSavedAsDraft, result.Message)
		assert.Equal(t, false, result.DataMap()["is_published"])
		assert.Equal(t, "Draft Renamed", result.DataMap()["name"])
	})

	t.Run("Error - Publishing an empty survey through status", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PATCH", url+"/status", map[string]interface{}{"is_published": true}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
		testutils.AssertError(t, resp, "POLICY_VIOLATION")
	})

	t.Run("Error - Status without is_published", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PATCH", url+"/status", map[string]interface{}{}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
	})

	var blockID uint
	t.Run("Success - Adding a block does not publish", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", url+"/blocks", block("Only", textQuestion("q1")), a.token)
		assert.NoError(t, err)
		assert.Equal(t, 201, resp.Code)
		blockID = idOf(testutils.AssertSuccess(t, resp).DataMap())

		var s models.Survey
		env.DB.First(&s, id)
		assert.False(t, s.IsPublished)
	})

	t.Run("Success - Patch recomputes and publishes", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PATCH", url, map[string]interface{}{"description": "now ready"}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		result := testutils.AssertSuccess(t, resp)
		assert.Equal(t, survey.MsgUpdated, result.Message)
		assert.Equal(t, true, result.DataMap()["is_published"])
		assert.Equal(t, "Draft Renamed", result.DataMap()["name"])
	})

	t.Run("Success - Status can unpublish", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PATCH", url+"/status", map[string]interface{}{"is_published": false}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		result := testutils.AssertSuccess(t, resp)
		assert.Equal(t, survey.MsgStatusChanged, result.Message)
		assert.Equal(t, false, result.DataMap()["is_published"])
	})

	t.Run("Success - Status can publish again", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PATCH", url+"/status", map[string]interface{}{"is_published": true}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		assert.Equal(t, true, testutils.AssertSuccess(t, resp).DataMap()["is_published"])
	})

	t.Run("Success - Second question leaves stored state until next survey write", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", fmt.Sprintf("/blocks/%d/questions", blockID), radioQuestion("q2"), a.token)
		assert.NoError(t, err)
		assert.Equal(t, 201, resp.Code)

		resp, err = testutils.MakeRequest(env.App, "GET", url, nil, a.token)
		assert.NoError(t, err)
		assert.Equal(t, true, testutils.AssertSuccess(t, resp).DataMap()["is_published"])

		resp, err = testutils.MakeRequest(env.App, "PATCH", url, map[string]interface{}{}, a.token)
		assert.NoError(t, err)
		result := testutils.AssertSuccess(t, resp)
		assert.Equal(t, survey.MsgSavedAsDraft, result.Message)
		assert.Equal(t, false, result.DataMap()["is_published"])
	})

	t.Run("Error - Renaming onto an existing survey", func(t *testing.T) {
		createSurvey(t, env, a, map[string]interface{}{"name": "Taken"})
		resp, err := testutils.MakeRequest(env.App, "PATCH", url, map[string]interface{}{"name": "Taken"}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 409, resp.Code)
	})
}

func TestBlocksAndQuestions(t *testing.T) {
	env := testutils.SetupTestApp(t)
	a := newAuthor(t, env, "author_one")
	b := newAuthor(t, env, "author_two")

	created := createSurvey(t, env, a, map[string]interface{}{
		"name":   "Structured",
		"blocks": []interface{}{block("First", textQuestion("q1"))},
	})
	surveyID := idOf(created.DataMap())
	blocks, _ := created.DataMap()["blocks"].([]interface{})
	require.Len(t, blocks, 1)
	blockID := idOf(blocks[0].(map[string]interface{}))

	t.Run("Error - Block name reused within a survey", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", fmt.Sprintf("/surveys/%d/blocks", surveyID), block("First"), a.token)
		assert.NoError(t, err)
		assert.Equal(t, 409, resp.Code)
		result := testutils.AssertError(t, resp, "CONFLICT")
		assert.Equal(t, survey.MsgBlockNameTaken, result.Error.Field("name"))
	})

	t.Run("Success - Rename block", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PUT", fmt.Sprintf("/blocks/%d", blockID), map[string]string{"name": "Renamed"}, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		assert.Equal(t, "Renamed", testutils.AssertSuccess(t, resp).DataMap()["name"])
	})

	t.Run("Error - Other author cannot see blocks or questions", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", fmt.Sprintf("/blocks/%d", blockID), nil, b.token)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)

		resp, err = testutils.MakeRequest(env.App, "POST", fmt.Sprintf("/blocks/%d/questions", blockID), textQuestion("intruder"), b.token)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	var questionID uint
	t.Run("Success - Create and list questions", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", fmt.Sprintf("/blocks/%d/questions", blockID), radioQuestion("Pick one"), a.token)
		assert.NoError(t, err)
		assert.Equal(t, 201, resp.Code)
		questionID = idOf(testutils.AssertSuccess(t, resp).DataMap())

		resp, err = testutils.MakeRequest(env.App, "GET", fmt.Sprintf("/blocks/%d/questions", blockID), nil, a.token)
		assert.NoError(t, err)
		assert.Len(t, testutils.AssertSuccess(t, resp).DataList(), 2)
	})

	t.Run("Success - Switching to text drops choices", func(t *testing.T) {
		q := radioQuestion("Now text")
		q["question_type"] = "text"
		resp, err := testutils.MakeRequest(env.App, "PUT", fmt.Sprintf("/questions/%d", questionID), q, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		data := testutils.AssertSuccess(t, resp).DataMap()
		assert.Equal(t, "text", data["question_type"])
		props, _ := data["properties"].(map[string]interface{})
		assert.Nil(t, props["choices"])
	})

	t.Run("Success - Delete question", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "DELETE", fmt.Sprintf("/questions/%d", questionID), nil, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		resp, err = testutils.MakeRequest(env.App, "GET", fmt.Sprintf("/questions/%d", questionID), nil, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("Success - Delete block removes its questions", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "DELETE", fmt.Sprintf("/blocks/%d", blockID), nil, a.token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var count int64
		env.DB.Model(&models.Question{}).Where("block_id = ?", blockID).Count(&count)
		assert.Equal(t, int64(0), count)
	})
}

func TestDeleteSurveyCascades(t *testing.T) {
	env := testutils.SetupTestApp(t)
	a := newAuthor(t, env, "author_one")
	respondent := testutils.CreateTestUser(t, env.DB, "respondent", "resp@example.com", testutils.TestPassword, models.RoleStandard)

	created := createSurvey(t, env, a, map[string]interface{}{
		"name":   "Doomed",
		"blocks": []interface{}{block("Only", textQuestion("q1"))},
	})
	id := idOf(created.DataMap())
	require.NoError(t, env.DB.Create(&models.SurveyLink{SurveyID: id, UserID: respondent.ID}).Error)

	resp, err := testutils.MakeRequest(env.App, "DELETE", fmt.Sprintf("/surveys/%d", id), nil, a.token)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, survey.MsgDeleted, testutils.AssertSuccess(t, resp).Message)

	for _, model := range []interface{}{&models.Survey{}, &models.Block{}, &models.Question{}, &models.SurveyLink{}} {
		var count int64
		env.DB.Model(model).Count(&count)
		assert.Equal(t, int64(0), count, "%T", model)
	}

	var still int64
	env.DB.Model(&models.User{}).Where("id = ?", respondent.ID).Count(&still)
	assert.Equal(t, int64(1), still)
}

func TestDefaultQuestions(t *testing.T) {
	env := testutils.SetupTestApp(t)

	created, err := survey.SeedDefaultQuestions(context.Background(), env.DB)
	require.NoError(t, err)
	assert.Equal(t, len(survey.DefaultQuestions), created)

	again, err := survey.SeedDefaultQuestions(context.Background(), env.DB)
	require.NoError(t, err)
	assert.Equal(t, 0, again)

	member := testutils.CreateTestUser(t, env.DB, "member_01", "member@example.com", testutils.TestPassword, models.RoleStandard)
	token := testutils.GetAuthToken(t, member.ID, models.RoleStandard)

	t.Run("Success - Any signed-in user can list templates", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/default-questions", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		list := testutils.AssertSuccess(t, resp).DataList()
		require.Len(t, list, 3)
		assert.Equal(t, "text", list[0].(map[string]interface{})["question_type"])
	})

	t.Run("Error - Unknown template", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/default-questions/999", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})
}
