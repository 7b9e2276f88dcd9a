package store

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"

	"github.com/alanahq/alana-server/internal/logger"
	"github.com/alanahq/alana-server/internal/model"
)

var dbSeq int

// testDB opens a fresh in-memory database with the schema migrated.
func testDB(t *testing.T) *DB {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", dbSeq)
	db, err := Open(context.Background(), sqlite.Open(dsn), Config{
		DSN:         dsn,
		AutoMigrate: true,
	}, logger.NewDefault())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, FullName: "Test User", IsActive: true}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedWorkspace(t *testing.T, db *DB, owner *model.User, slug string) *model.Workspace {
	t.Helper()
	ws := &model.Workspace{Name: "Test Workspace", Slug: slug, OwnerID: owner.ID}
	if err := db.Workspaces().Create(context.Background(), ws); err != nil {
		t.Fatalf("seed workspace: %v", err)
	}
	return ws
}

func seedProject(t *testing.T, db *DB, ws *model.Workspace, prefix string) *model.Project {
	t.Helper()
	project := &model.Project{
		Name:        "Test Project",
		Slug:        "test-project",
		Prefix:      prefix,
		WorkspaceID: ws.ID,
	}
	if err := db.Projects().Create(context.Background(), project); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project
}

func TestUserStoreRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "ada@example.com")

	byEmail, err := db.Users().FindByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Fatal("FindByEmail should return the created user")
	}

	byID, err := db.Users().FindByID(ctx, user.ID.String())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID == nil || byID.Email != "ada@example.com" {
		t.Fatal("FindByID should return the created user")
	}
}

func TestUserStoreMissIsNotAnError(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	user, err := db.Users().FindByEmail(ctx, "nobody@example.com")
	if err != nil || user != nil {
		t.Errorf("FindByEmail miss: got (%v, %v), want (nil, nil)", user, err)
	}

	user, err = db.Users().FindByID(ctx, "not-even-a-uuid")
	if err != nil || user != nil {
		t.Errorf("FindByID with invalid uuid: got (%v, %v), want (nil, nil)", user, err)
	}
}

func TestUserStoreEmailIsExactMatch(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "Ada@Example.com")

	user, err := db.Users().FindByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if user != nil {
		t.Error("lookup must not case-fold the email")
	}
}

func TestWorkspaceCreateSeedsOwnerMembership(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	ws := seedWorkspace(t, db, owner, "acme")

	member, err := db.Workspaces().FindMember(ctx, ws.ID, owner.ID)
	if err != nil {
		t.Fatalf("FindMember: %v", err)
	}
	if member == nil {
		t.Fatal("creating a workspace should add the owner as a member")
	}
	if member.Role != model.RoleOwner {
		t.Errorf("owner membership role = %q, want %q", member.Role, model.RoleOwner)
	}
}

func TestWorkspaceSlugTaken(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	seedWorkspace(t, db, owner, "acme")

	taken, err := db.Workspaces().SlugTaken(ctx, "acme")
	if err != nil {
		t.Fatalf("SlugTaken: %v", err)
	}
	if !taken {
		t.Error("existing slug should report taken")
	}

	taken, err = db.Workspaces().SlugTaken(ctx, "other")
	if err != nil {
		t.Fatalf("SlugTaken: %v", err)
	}
	if taken {
		t.Error("unused slug should not report taken")
	}
}

func TestProjectCreateSeedsDefaultStates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	ws := seedWorkspace(t, db, owner, "acme")
	project := seedProject(t, db, ws, "ACM")

	states, err := db.Projects().ListStates(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListStates: %v", err)
	}
	if len(states) != 6 {
		t.Fatalf("state count = %d, want 6", len(states))
	}
	if states[0].Name != "Backlog" || !states[0].IsDefault {
		t.Errorf("first state = %q (default=%v), want default Backlog", states[0].Name, states[0].IsDefault)
	}

	def, err := db.Projects().DefaultState(ctx, project.ID)
	if err != nil {
		t.Fatalf("DefaultState: %v", err)
	}
	if def == nil || def.Name != "Backlog" {
		t.Error("DefaultState should return Backlog")
	}
}

func TestTaskNumbersAreSequentialPerProject(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	ws := seedWorkspace(t, db, owner, "acme")
	project := seedProject(t, db, ws, "ACM")
	other := seedProject(t, db, ws, "OTH")

	for want := 1; want <= 3; want++ {
		task := &model.Task{Title: "task", ProjectID: project.ID, CreatorID: owner.ID}
		if err := db.Tasks().Create(ctx, task); err != nil {
			t.Fatalf("Create task: %v", err)
		}
		if task.Number != want {
			t.Errorf("task number = %d, want %d", task.Number, want)
		}
	}

	otherTask := &model.Task{Title: "task", ProjectID: other.ID, CreatorID: owner.ID}
	if err := db.Tasks().Create(ctx, otherTask); err != nil {
		t.Fatalf("Create task: %v", err)
	}
	if otherTask.Number != 1 {
		t.Errorf("other project task number = %d, want independent counter starting at 1", otherTask.Number)
	}
}

func TestTaskMoveShiftsSortOrder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	ws := seedWorkspace(t, db, owner, "acme")
	project := seedProject(t, db, ws, "ACM")

	def, err := db.Projects().DefaultState(ctx, project.ID)
	if err != nil || def == nil {
		t.Fatalf("DefaultState: %v", err)
	}

	tasks := make([]*model.Task, 3)
	for i := range tasks {
		tasks[i] = &model.Task{
			Title:     fmt.Sprintf("task %d", i),
			ProjectID: project.ID,
			CreatorID: owner.ID,
			StateID:   &def.ID,
		}
		if err := db.Tasks().Create(ctx, tasks[i]); err != nil {
			t.Fatalf("Create task: %v", err)
		}
	}

	// Move the last task to the head of the column.
	if err := db.Tasks().Move(ctx, tasks[2].ID, def.ID, 1); err != nil {
		t.Fatalf("Move: %v", err)
	}

	listed, err := db.Tasks().List(ctx, TaskFilter{ProjectID: &project.ID, StateID: &def.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("task count = %d, want 3", len(listed))
	}
	if listed[0].ID != tasks[2].ID {
		t.Errorf("first task = %q, want the moved task", listed[0].Title)
	}
}

func TestTaskListFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	assignee := seedUser(t, db, "dev@example.com")
	ws := seedWorkspace(t, db, owner, "acme")
	project := seedProject(t, db, ws, "ACM")

	assigned := &model.Task{
		Title:      "assigned",
		ProjectID:  project.ID,
		CreatorID:  owner.ID,
		AssigneeID: &assignee.ID,
		Priority:   model.PriorityUrgent,
	}
	if err := db.Tasks().Create(ctx, assigned); err != nil {
		t.Fatalf("Create task: %v", err)
	}
	unassigned := &model.Task{Title: "unassigned", ProjectID: project.ID, CreatorID: owner.ID}
	if err := db.Tasks().Create(ctx, unassigned); err != nil {
		t.Fatalf("Create task: %v", err)
	}

	byAssignee, err := db.Tasks().List(ctx, TaskFilter{ProjectID: &project.ID, AssigneeID: &assignee.ID})
	if err != nil {
		t.Fatalf("List by assignee: %v", err)
	}
	if len(byAssignee) != 1 || byAssignee[0].ID != assigned.ID {
		t.Errorf("assignee filter returned %d tasks, want the 1 assigned task", len(byAssignee))
	}

	urgent := model.PriorityUrgent
	byPriority, err := db.Tasks().List(ctx, TaskFilter{ProjectID: &project.ID, Priority: &urgent})
	if err != nil {
		t.Fatalf("List by priority: %v", err)
	}
	if len(byPriority) != 1 || byPriority[0].ID != assigned.ID {
		t.Errorf("priority filter returned %d tasks, want 1", len(byPriority))
	}
}

func TestCycleNumbering(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	ws := seedWorkspace(t, db, owner, "acme")
	project := seedProject(t, db, ws, "ACM")

	for want := 1; want <= 2; want++ {
		cycle := &model.Cycle{Name: "Sprint", ProjectID: project.ID}
		if err := db.Tasks().CreateCycle(ctx, cycle); err != nil {
			t.Fatalf("CreateCycle: %v", err)
		}
		if cycle.Number != want {
			t.Errorf("cycle number = %d, want %d", cycle.Number, want)
		}
	}
}

func TestCycleTaskMembership(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	ws := seedWorkspace(t, db, owner, "acme")
	project := seedProject(t, db, ws, "ACM")

	cycle := &model.Cycle{Name: "Sprint 1", ProjectID: project.ID}
	if err := db.Tasks().CreateCycle(ctx, cycle); err != nil {
		t.Fatalf("CreateCycle: %v", err)
	}
	task := &model.Task{Title: "task", ProjectID: project.ID, CreatorID: owner.ID}
	if err := db.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("Create task: %v", err)
	}

	if err := db.Tasks().AddToCycle(ctx, cycle, task); err != nil {
		t.Fatalf("AddToCycle: %v", err)
	}
	tasks, err := db.Tasks().ListCycleTasks(ctx, cycle)
	if err != nil {
		t.Fatalf("ListCycleTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("cycle task count = %d, want 1", len(tasks))
	}

	if err := db.Tasks().RemoveFromCycle(ctx, cycle, task); err != nil {
		t.Fatalf("RemoveFromCycle: %v", err)
	}
	tasks, err = db.Tasks().ListCycleTasks(ctx, cycle)
	if err != nil {
		t.Fatalf("ListCycleTasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("cycle task count after removal = %d, want 0", len(tasks))
	}
}

func TestCommentThreadDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	ws := seedWorkspace(t, db, owner, "acme")
	project := seedProject(t, db, ws, "ACM")
	task := &model.Task{Title: "task", ProjectID: project.ID, CreatorID: owner.ID}
	if err := db.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("Create task: %v", err)
	}

	parent := &model.Comment{
		EntityType: "task", EntityID: task.ID,
		Content: "parent", AuthorID: owner.ID, WorkspaceID: ws.ID,
	}
	if err := db.Comments().Create(ctx, parent); err != nil {
		t.Fatalf("Create comment: %v", err)
	}
	reply := &model.Comment{
		EntityType: "task", EntityID: task.ID,
		Content: "reply", AuthorID: owner.ID, WorkspaceID: ws.ID,
		ParentID: &parent.ID,
	}
	if err := db.Comments().Create(ctx, reply); err != nil {
		t.Fatalf("Create reply: %v", err)
	}

	if err := db.Comments().Delete(ctx, parent.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	remaining, err := db.Comments().ListByEntity(ctx, "task", task.ID)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("comment count after thread delete = %d, want 0", len(remaining))
	}
}

func TestActivityFeed(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	ws := seedWorkspace(t, db, owner, "acme")
	project := seedProject(t, db, ws, "ACM")

	for i := 0; i < 3; i++ {
		activity := &model.Activity{
			EntityType:  "project",
			EntityID:    project.ID,
			Action:      "updated",
			ActorID:     owner.ID,
			WorkspaceID: ws.ID,
			ProjectID:   &project.ID,
		}
		if err := db.Activities().Record(ctx, activity); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := db.Activities().ListByWorkspace(ctx, ws.ID, 2)
	if err != nil {
		t.Fatalf("ListByWorkspace: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("limited feed length = %d, want 2", len(entries))
	}

	all, err := db.Activities().ListByEntity(ctx, "project", project.ID, 0)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("entity feed length = %d, want 3", len(all))
	}
}
