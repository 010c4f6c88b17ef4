package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/policy"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/workflow"
	"gorm.io/gorm"
)

type stubDrafter struct {
	tasks []GeneratedTask
	err   error
}

func (s *stubDrafter) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	return s.tasks, s.err
}

type TaskServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	service  *TaskService
	drafter  *stubDrafter
	admin    *models.User
	po       *models.User
	dev      *models.User
	otherDev *models.User
}

func (s *TaskServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.drafter = &stubDrafter{}
	s.service = NewTaskService(repository.NewTaskRepository(s.db), repository.NewUserRepository(s.db), s.drafter)

	s.admin = seedUser(s.T(), s.db, "Admin", "admin@example.com", models.RoleAdmin)
	s.po = seedUser(s.T(), s.db, "Owner", "po@example.com", models.RoleProductOwner)
	s.dev = seedUser(s.T(), s.db, "Dev", "dev@example.com", models.RoleDeveloper)
	s.otherDev = seedUser(s.T(), s.db, "Other", "other@example.com", models.RoleDeveloper)
}

func (s *TaskServiceTestSuite) createTask(title string, assignee *models.User) *models.Task {
	input := CreateTaskInput{Title: title}
	if assignee != nil {
		id := assignee.ID
		input.AssigneeID = &id
	}
	task, err := s.service.CreateTask(callerFor(s.po), input)
	s.Require().NoError(err)
	return task
}

func statusPtr(st models.TaskStatus) *models.TaskStatus { return &st }

func (s *TaskServiceTestSuite) TestCreateTask_Defaults() {
	task := s.createTask("  Write docs ", s.dev)

	s.Equal("Write docs", task.Title)
	s.Equal(workflow.Backlog, task.Status)
	s.Equal(s.po.ID, task.CreatedBy)
	s.Require().NotNil(task.Assignee)
	s.Equal("Dev", task.Assignee.Name)
}

func (s *TaskServiceTestSuite) TestCreateTask_Validation() {
	_, err := s.service.CreateTask(callerFor(s.po), CreateTaskInput{Title: "   "})
	s.ErrorIs(err, ErrTitleRequired)

	_, err = s.service.CreateTask(callerFor(s.po), CreateTaskInput{Title: "X", Status: "Doing"})
	s.ErrorIs(err, workflow.ErrInvalidStatus)

	missing := uint64(9999)
	_, err = s.service.CreateTask(callerFor(s.po), CreateTaskInput{Title: "X", AssigneeID: &missing})
	s.ErrorIs(err, ErrAssigneeNotFound)

	_, err = s.service.CreateTask(callerFor(s.dev), CreateTaskInput{Title: "X"})
	s.ErrorIs(err, policy.ErrForbidden)

	_, err = s.service.CreateTask(policy.Caller{}, CreateTaskInput{Title: "X"})
	s.ErrorIs(err, policy.ErrUnauthenticated)
}

func (s *TaskServiceTestSuite) TestStatusRoundTrip() {
	task := s.createTask("Round trip", s.dev)

	for _, status := range workflow.Statuses() {
		updated, err := s.service.PatchTask(callerFor(s.dev), task.ID, TaskChanges{Status: statusPtr(status)})
		s.Require().NoError(err)
		s.Equal(status, updated.Status)

		stored, err := s.service.GetTask(task.ID)
		s.Require().NoError(err)
		s.Equal(status, stored.Status)
	}
}

func (s *TaskServiceTestSuite) TestPatch_DeveloperRules() {
	mine := s.createTask("Mine", s.dev)
	unassigned := s.createTask("Nobody's", nil)
	theirs := s.createTask("Theirs", s.otherDev)

	_, err := s.service.PatchTask(callerFor(s.dev), mine.ID, TaskChanges{Status: statusPtr(workflow.InProgress)})
	s.NoError(err)

	_, err = s.service.PatchTask(callerFor(s.dev), unassigned.ID, TaskChanges{Status: statusPtr(workflow.InProgress)})
	s.ErrorIs(err, policy.ErrForbidden)

	_, err = s.service.PatchTask(callerFor(s.dev), theirs.ID, TaskChanges{Status: statusPtr(workflow.InProgress)})
	s.ErrorIs(err, policy.ErrForbidden)

	// Editing anything besides the status needs full edit rights, even on
	// an assigned task.
	_, err = s.service.PatchTask(callerFor(s.dev), mine.ID, TaskChanges{
		Status: statusPtr(workflow.Done),
		Title:  strPtr("Renamed"),
	})
	s.ErrorIs(err, policy.ErrForbidden)

	// Reassigning to self in the body does not grant anything.
	devID := s.dev.ID
	_, err = s.service.PatchTask(callerFor(s.dev), theirs.ID, TaskChanges{AssigneeID: &devID})
	s.ErrorIs(err, policy.ErrForbidden)

	stored, err := s.service.GetTask(theirs.ID)
	s.Require().NoError(err)
	s.Equal(s.otherDev.ID, *stored.AssigneeID)
	s.Equal(workflow.Backlog, stored.Status)

	_, err = s.service.PatchTask(callerFor(s.dev), mine.ID, TaskChanges{Status: statusPtr("Finished")})
	s.ErrorIs(err, workflow.ErrInvalidStatus)
}

func (s *TaskServiceTestSuite) TestReplace_RequiresEdit() {
	task := s.createTask("Replace me", s.dev)

	_, err := s.service.ReplaceTask(callerFor(s.dev), task.ID, TaskChanges{Status: statusPtr(workflow.Done)})
	s.ErrorIs(err, policy.ErrForbidden)

	due := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	updated, err := s.service.ReplaceTask(callerFor(s.admin), task.ID, TaskChanges{
		Title:         strPtr("Replaced"),
		Description:   strPtr("new body"),
		Status:        statusPtr(workflow.ReadyForReview),
		DueDate:       &due,
		ClearAssignee: true,
	})
	s.Require().NoError(err)
	s.Equal("Replaced", updated.Title)
	s.Equal("new body", updated.Description)
	s.Equal(workflow.ReadyForReview, updated.Status)
	s.Nil(updated.AssigneeID)
	s.Require().NotNil(updated.DueDate)
	s.True(due.Equal(*updated.DueDate))

	_, err = s.service.ReplaceTask(callerFor(s.admin), task.ID, TaskChanges{Title: strPtr(" ")})
	s.ErrorIs(err, ErrTitleEmpty)

	_, err = s.service.ReplaceTask(callerFor(s.admin), task.ID, TaskChanges{})
	s.ErrorIs(err, ErrNoChanges)

	_, err = s.service.ReplaceTask(callerFor(s.admin), 9999, TaskChanges{Title: strPtr("x")})
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestDeleteTask() {
	task := s.createTask("Delete me", s.dev)

	s.ErrorIs(s.service.DeleteTask(callerFor(s.dev), task.ID), policy.ErrForbidden)
	s.NoError(s.service.DeleteTask(callerFor(s.po), task.ID))

	_, err := s.service.GetTask(task.ID)
	s.ErrorIs(err, ErrTaskNotFound)
	s.ErrorIs(s.service.DeleteTask(callerFor(s.po), task.ID), ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestGetTaskForCaller() {
	task := s.createTask("Visible", s.otherDev)

	_, err := s.service.GetTaskForCaller(callerFor(s.dev), task.ID)
	s.ErrorIs(err, policy.ErrForbidden)

	got, err := s.service.GetTaskForCaller(callerFor(s.otherDev), task.ID)
	s.Require().NoError(err)
	s.Equal(task.ID, got.ID)

	_, err = s.service.GetTaskForCaller(policy.Caller{}, task.ID)
	s.ErrorIs(err, policy.ErrUnauthenticated)
}

func (s *TaskServiceTestSuite) TestAddComment_AppendsInOrder() {
	task := s.createTask("Discuss", s.dev)

	first, err := s.service.AddComment(callerFor(s.dev), task.ID, "  first ")
	s.Require().NoError(err)
	s.Require().Len(first.Comments, 1)
	s.Equal("first", first.Comments[0].Text)
	s.Equal("Dev", first.Comments[0].AuthorName)

	second, err := s.service.AddComment(callerFor(s.po), task.ID, "second")
	s.Require().NoError(err)
	s.Require().Len(second.Comments, 2)
	s.Equal(first.Comments[0].ID, second.Comments[0].ID)
	s.Equal("first", second.Comments[0].Text)
	s.Equal("second", second.Comments[1].Text)
	s.Require().NotNil(second.Assignee)
	s.Equal(s.dev.ID, second.Assignee.ID)

	_, err = s.service.AddComment(callerFor(s.dev), task.ID, "   ")
	s.ErrorIs(err, ErrCommentTextRequired)

	_, err = s.service.AddComment(callerFor(s.otherDev), task.ID, "not mine")
	s.ErrorIs(err, policy.ErrForbidden)
}

func (s *TaskServiceTestSuite) TestAddComment_Concurrent() {
	task := s.createTask("Busy", s.dev)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, text := range []string{"A", "B"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			_, err := s.service.AddComment(callerFor(s.dev), task.ID, text)
			errs <- err
		}(text)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	stored, err := s.service.GetTask(task.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.Comments, 2)
	texts := []string{stored.Comments[0].Text, stored.Comments[1].Text}
	s.ElementsMatch([]string{"A", "B"}, texts)
}

func (s *TaskServiceTestSuite) TestListTasks_Scoping() {
	s.createTask("Dev task", s.dev)
	s.createTask("Other task", s.otherDev)
	s.createTask("Unassigned", nil)

	tasks, total, err := s.service.ListTasks(callerFor(s.dev), ListTasksInput{})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(tasks, 1)
	s.Equal("Dev task", tasks[0].Title)

	tasks, total, err = s.service.ListTasks(callerFor(s.po), ListTasksInput{})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(tasks, 3)

	tasks, _, err = s.service.ListTasks(callerFor(s.admin), ListTasksInput{Unassigned: true})
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal("Unassigned", tasks[0].Title)

	tasks, _, err = s.service.ListTasks(callerFor(s.admin), ListTasksInput{Search: "OTHER"})
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal("Other task", tasks[0].Title)

	_, _, err = s.service.ListTasks(callerFor(s.admin), ListTasksInput{Status: statusPtr("Nope")})
	s.ErrorIs(err, workflow.ErrInvalidStatus)

	_, _, err = s.service.ListTasks(policy.Caller{}, ListTasksInput{})
	s.ErrorIs(err, policy.ErrUnauthenticated)
}

func (s *TaskServiceTestSuite) TestListTasks_Overdue() {
	s.service.now = func() time.Time { return time.Date(2030, 6, 15, 10, 0, 0, 0, time.UTC) }

	yesterday := time.Date(2030, 6, 14, 12, 0, 0, 0, time.UTC)
	today := time.Date(2030, 6, 15, 9, 0, 0, 0, time.UTC)
	_, err := s.service.CreateTask(callerFor(s.po), CreateTaskInput{Title: "Late", DueDate: &yesterday})
	s.Require().NoError(err)
	_, err = s.service.CreateTask(callerFor(s.po), CreateTaskInput{Title: "Due today", DueDate: &today})
	s.Require().NoError(err)
	s.createTask("No date", nil)

	tasks, _, err := s.service.ListTasks(callerFor(s.po), ListTasksInput{Overdue: true})
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal("Late", tasks[0].Title)
}

func (s *TaskServiceTestSuite) TestBoardAndStats() {
	a := s.createTask("A", s.dev)
	s.createTask("B", s.otherDev)
	s.createTask("C", nil)

	_, err := s.service.PatchTask(callerFor(s.dev), a.ID, TaskChanges{Status: statusPtr(workflow.Done)})
	s.Require().NoError(err)

	// A row written before statuses were validated still shows up.
	s.Require().NoError(s.db.Exec("UPDATE tasks SET status = ? WHERE title = ?", "Legacy", "C").Error)

	columns, err := s.service.Board(callerFor(s.admin))
	s.Require().NoError(err)
	s.Require().Len(columns, len(workflow.Statuses()))
	s.Equal(workflow.Backlog, columns[0].Status)
	s.Len(columns[0].Tasks, 2)
	s.Len(columns[len(columns)-1].Tasks, 1)

	devBoard, err := s.service.Board(callerFor(s.dev))
	s.Require().NoError(err)
	total := 0
	for _, col := range devBoard {
		total += len(col.Tasks)
	}
	s.Equal(1, total)

	stats, err := s.service.Stats(callerFor(s.admin))
	s.Require().NoError(err)
	s.Equal(int64(3), stats.Total)
	s.Require().Len(stats.ByStatus, len(workflow.Statuses()))
	s.Equal(int64(2), stats.ByStatus[0].Count)
	s.Equal(int64(1), stats.ByStatus[len(stats.ByStatus)-1].Count)

	names := map[string]int64{}
	for _, at := range stats.ByAssignee {
		names[at.Name] = at.Count
	}
	s.Equal(int64(1), names["Unassigned"])
	s.Equal(int64(1), names["Dev"])
	s.Equal(int64(1), names["Other"])
}

func (s *TaskServiceTestSuite) TestGenerateDrafts() {
	past := time.Now().Add(-72 * time.Hour)
	future := time.Now().Add(72 * time.Hour)
	s.drafter.tasks = []GeneratedTask{
		{Title: " Ship release ", DueDate: &future},
		{Title: "", Description: "ignored"},
		{Title: "Old", DueDate: &past},
	}

	drafts, err := s.service.GenerateDrafts(context.Background(), callerFor(s.po), "notes")
	s.Require().NoError(err)
	s.Require().Len(drafts, 2)
	s.Equal("Ship release", drafts[0].Title)
	s.NotNil(drafts[0].DueDate)
	s.Nil(drafts[1].DueDate)

	_, err = s.service.GenerateDrafts(context.Background(), callerFor(s.dev), "notes")
	s.ErrorIs(err, policy.ErrForbidden)

	_, err = s.service.GenerateDrafts(context.Background(), callerFor(s.po), "  ")
	s.ErrorIs(err, ErrDraftTextRequired)

	s.drafter.tasks = nil
	_, err = s.service.GenerateDrafts(context.Background(), callerFor(s.po), "notes")
	s.ErrorIs(err, ErrAINoTasksGenerated)

	s.drafter.err = errors.New("upstream down")
	_, err = s.service.GenerateDrafts(context.Background(), callerFor(s.po), "notes")
	s.ErrorIs(err, ErrAIGenerationFailed)

	many := make([]GeneratedTask, 30)
	for i := range many {
		many[i].Title = fmt.Sprintf("Task %d", i)
	}
	s.drafter.err = nil
	s.drafter.tasks = many
	drafts, err = s.service.GenerateDrafts(context.Background(), callerFor(s.po), "notes")
	s.Require().NoError(err)
	s.Len(drafts, 20)

	unconfigured := NewTaskService(repository.NewTaskRepository(s.db), repository.NewUserRepository(s.db), nil)
	_, err = unconfigured.GenerateDrafts(context.Background(), callerFor(s.po), "notes")
	s.ErrorIs(err, ErrAIServiceNotConfigured)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
