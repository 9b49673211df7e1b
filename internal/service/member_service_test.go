package service

import (
	"context"
	"testing"

	"storyloom/internal/access"
	"storyloom/internal/models"
	"storyloom/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memberRepoStub is a stub for repository.MemberRepository.
type memberRepoStub struct {
	findFn          func(context.Context, uint, uint) (*models.ProjectMember, error)
	getByIDFn       func(context.Context, uint) (*models.ProjectMember, error)
	listByProjectFn func(context.Context, uint) ([]models.ProjectMember, error)
	createFn        func(context.Context, *models.ProjectMember) error
	updateRoleFn    func(context.Context, *models.ProjectMember, models.ProjectRole) error
	deleteFn        func(context.Context, *models.ProjectMember) error
}

func (s *memberRepoStub) Find(ctx context.Context, projectID, userID uint) (*models.ProjectMember, error) {
	return s.findFn(ctx, projectID, userID)
}
func (s *memberRepoStub) GetByID(ctx context.Context, id uint) (*models.ProjectMember, error) {
	return s.getByIDFn(ctx, id)
}
func (s *memberRepoStub) ListByProject(ctx context.Context, projectID uint) ([]models.ProjectMember, error) {
	return s.listByProjectFn(ctx, projectID)
}
func (s *memberRepoStub) Create(ctx context.Context, member *models.ProjectMember) error {
	return s.createFn(ctx, member)
}
func (s *memberRepoStub) UpdateRole(ctx context.Context, member *models.ProjectMember, role models.ProjectRole) error {
	return s.updateRoleFn(ctx, member, role)
}
func (s *memberRepoStub) Delete(ctx context.Context, member *models.ProjectMember) error {
	return s.deleteFn(ctx, member)
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn     func(context.Context, uint) (*models.User, error)
	findByEmailFn func(context.Context, string) (*models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findByEmailFn(ctx, email)
}
func (s *userRepoStub) Ensure(_ context.Context, email, name string) (*models.User, error) {
	return &models.User{ID: 50, Email: email, Name: name}, nil
}

const (
	stubProjectID     = 7
	stubOwnerMemberID = 100
)

// stubMembers returns a repo where user N holds roles[N] in project 7 and
// member row 100 is the owner's.
func stubMembers(t *testing.T, roles map[uint]models.ProjectRole) *memberRepoStub {
	return &memberRepoStub{
		findFn: func(_ context.Context, projectID, userID uint) (*models.ProjectMember, error) {
			role, ok := roles[userID]
			if !ok || projectID != stubProjectID {
				return nil, models.NewNotFoundError("ProjectMember", userID)
			}
			return &models.ProjectMember{ProjectID: projectID, UserID: userID, Role: role}, nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.ProjectMember, error) {
			if id != stubOwnerMemberID {
				return nil, models.NewNotFoundError("ProjectMember", id)
			}
			return &models.ProjectMember{ID: id, ProjectID: stubProjectID, UserID: 1, Role: models.ProjectRoleOwner}, nil
		},
		listByProjectFn: func(_ context.Context, _ uint) ([]models.ProjectMember, error) { return nil, nil },
		createFn: func(_ context.Context, _ *models.ProjectMember) error {
			t.Fatal("create must not be reached")
			return nil
		},
		updateRoleFn: func(_ context.Context, _ *models.ProjectMember, _ models.ProjectRole) error {
			t.Fatal("update must not be reached")
			return nil
		},
		deleteFn: func(_ context.Context, _ *models.ProjectMember) error {
			t.Fatal("delete must not be reached")
			return nil
		},
	}
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:     func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		findByEmailFn: func(_ context.Context, _ string) (*models.User, error) { return &models.User{ID: 50}, nil },
	}
}

func TestMemberService_OwnerIsImmutableForEveryRequester(t *testing.T) {
	t.Parallel()

	requesters := []struct {
		userID uint
		role   models.ProjectRole
		code   string
	}{
		{1, models.ProjectRoleOwner, models.CodeOwnerImmutable},
		{2, models.ProjectRoleAdmin, models.CodeOwnerImmutable},
		{3, models.ProjectRoleMember, models.CodeForbidden},
		{4, models.ProjectRoleViewer, models.CodeForbidden},
	}
	roles := map[uint]models.ProjectRole{}
	for _, r := range requesters {
		roles[r.userID] = r.role
	}

	for _, tc := range requesters {
		t.Run(string(tc.role), func(t *testing.T) {
			t.Parallel()
			repo := stubMembers(t, roles)
			svc := NewMemberService(repo, noopUserRepo(), access.NewPolicy(repo))
			ctx := context.Background()

			for _, newRole := range []string{"admin", "member", "viewer", "owner"} {
				_, err := svc.UpdateMemberRole(ctx, UpdateMemberRoleInput{
					UserID: tc.userID, ProjectID: stubProjectID, MemberID: stubOwnerMemberID, Role: newRole,
				})
				assertCode(t, err, tc.code)
				assert.True(t, models.IsForbidden(err))
			}

			err := svc.RemoveMember(ctx, RemoveMemberInput{
				UserID: tc.userID, ProjectID: stubProjectID, MemberID: stubOwnerMemberID,
			})
			assertCode(t, err, tc.code)
		})
	}
}

func TestMemberService_AddMemberValidation(t *testing.T) {
	t.Parallel()

	repo := stubMembers(t, map[uint]models.ProjectRole{2: models.ProjectRoleAdmin})
	svc := NewMemberService(repo, noopUserRepo(), access.NewPolicy(repo))
	ctx := context.Background()

	t.Run("bad email", func(t *testing.T) {
		t.Parallel()
		_, err := svc.AddMember(ctx, AddMemberInput{UserID: 2, ProjectID: stubProjectID, Email: "nope"})
		assertValidationError(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		t.Parallel()
		_, err := svc.AddMember(ctx, AddMemberInput{UserID: 2, ProjectID: stubProjectID, Email: "a@example.com", Role: "editor"})
		assertValidationError(t, err)
	})

	t.Run("ownership is never granted", func(t *testing.T) {
		t.Parallel()
		_, err := svc.AddMember(ctx, AddMemberInput{UserID: 2, ProjectID: stubProjectID, Email: "a@example.com", Role: "owner"})
		assertCode(t, err, models.CodeForbidden)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.findByEmailFn = func(_ context.Context, email string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", email)
		}
		svc := NewMemberService(repo, users, access.NewPolicy(repo))
		_, err := svc.AddMember(ctx, AddMemberInput{UserID: 2, ProjectID: stubProjectID, Email: "ghost@example.com"})
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestMemberService_ViewerCannotAddMember(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	owner := testutil.CreateUser(t, env.db, testutil.Email(1))
	viewer := testutil.CreateUser(t, env.db, testutil.Email(2))
	invitee := testutil.CreateUser(t, env.db, testutil.Email(3))
	project := testutil.CreateProject(t, env.db, owner, "Harbor")
	testutil.AddMember(t, env.db, project, viewer, models.ProjectRoleViewer)

	_, err := env.members.AddMember(ctx, AddMemberInput{
		UserID: viewer.ID, ProjectID: project.ID, Email: invitee.Email, Role: "member",
	})
	assertCode(t, err, models.CodeForbidden)

	members, err := env.members.ListMembers(ctx, owner.ID, project.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestMemberService_Lifecycle(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	owner := testutil.CreateUser(t, env.db, testutil.Email(1))
	invitee := testutil.CreateUser(t, env.db, testutil.Email(2))
	project := testutil.CreateProject(t, env.db, owner, "Harbor")

	added, err := env.members.AddMember(ctx, AddMemberInput{
		UserID: owner.ID, ProjectID: project.ID, Email: "  WRITER2@example.com ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectRoleMember, added.Role)
	require.NotNil(t, added.User)
	assert.Equal(t, invitee.Email, added.User.Email)

	_, err = env.members.AddMember(ctx, AddMemberInput{UserID: owner.ID, ProjectID: project.ID, Email: invitee.Email})
	assertCode(t, err, models.CodeConflict)

	updated, err := env.members.UpdateMemberRole(ctx, UpdateMemberRoleInput{
		UserID: owner.ID, ProjectID: project.ID, MemberID: added.ID, Role: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectRoleAdmin, updated.Role)

	_, err = env.members.UpdateMemberRole(ctx, UpdateMemberRoleInput{
		UserID: invitee.ID, ProjectID: project.ID, MemberID: added.ID, Role: "owner",
	})
	assertCode(t, err, models.CodeForbidden)

	require.NoError(t, env.members.RemoveMember(ctx, RemoveMemberInput{
		UserID: owner.ID, ProjectID: project.ID, MemberID: added.ID,
	}))
	_, err = env.projects.GetProject(ctx, invitee.ID, project.ID)
	assertCode(t, err, models.CodeForbidden)
}

func TestMemberService_MemberOfOtherProjectIsNotFound(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	owner := testutil.CreateUser(t, env.db, testutil.Email(1))
	other := testutil.CreateUser(t, env.db, testutil.Email(2))
	mine := testutil.CreateProject(t, env.db, owner, "Harbor")
	theirs := testutil.CreateProject(t, env.db, other, "Elsewhere")
	writer := testutil.CreateUser(t, env.db, testutil.Email(3))
	foreign := testutil.AddMember(t, env.db, theirs, writer, models.ProjectRoleMember)

	err := env.members.RemoveMember(ctx, RemoveMemberInput{UserID: owner.ID, ProjectID: mine.ID, MemberID: foreign.ID})
	assertCode(t, err, models.CodeNotFound)
}
