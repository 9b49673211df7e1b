package seed

import (
	"fmt"
	"log"

	"storyloom/internal/models"

	"gorm.io/gorm"
)

// Options configure the demo preset.
type Options struct {
	OwnerEmail  string
	NumProjects int
	// Seed makes the generated content reproducible.
	Seed int64
}

// Summary counts what a run created.
type Summary struct {
	Projects      int
	Characters    int
	Dialogues     int
	Conversations int
	Questions     int
}

var moodNames = []string{"neutral", "happy", "angry", "sad"}

// Demo fills the database with NumProjects small but complete stories owned
// by OwnerEmail: a cast with moods, a nested dialogue folder tree with a
// branching graph, and text conversations carrying quizzes.
func Demo(db *gorm.DB, opts Options) (*Summary, error) {
	if opts.OwnerEmail == "" {
		opts.OwnerEmail = "writer@storyloom.local"
	}
	if opts.NumProjects <= 0 {
		opts.NumProjects = 1
	}

	f := NewFactory(db, opts.Seed)
	owner, err := f.EnsureUser(opts.OwnerEmail)
	if err != nil {
		return nil, err
	}
	viewer, err := f.EnsureUser("reader@storyloom.local")
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	for i := 0; i < opts.NumProjects; i++ {
		name := fmt.Sprintf("Demo story %d", i+1)
		if err := f.demoProject(owner, viewer, name, sum); err != nil {
			return nil, fmt.Errorf("seed %q: %w", name, err)
		}
		log.Printf("seeded project %q", name)
	}
	return sum, nil
}

func (f *Factory) demoProject(owner, viewer *models.User, name string, sum *Summary) error {
	project, err := f.CreateProject(owner, name)
	if err != nil {
		return err
	}
	if err := f.AddMember(project, viewer, models.ProjectRoleViewer); err != nil {
		return err
	}
	sum.Projects++

	cast := make([]*models.Character, 0, 3)
	for i := 0; i < 3; i++ {
		c, err := f.CreateCharacter(project, i+1, moodNames...)
		if err != nil {
			return err
		}
		cast = append(cast, c)
	}
	sum.Characters += len(cast)

	background, err := f.CreateBackground(project)
	if err != nil {
		return err
	}

	act, err := f.CreateFolder(project, models.FolderKindDialogue, "Act I", nil)
	if err != nil {
		return err
	}
	scenes, err := f.CreateFolder(project, models.FolderKindDialogue, "Scenes", act)
	if err != nil {
		return err
	}
	texts, err := f.CreateFolder(project, models.FolderKindSMS, "Phone", nil)
	if err != nil {
		return err
	}

	// start branches to two scenes; both lead to a shared ending
	start, err := f.CreateDialogue(project, act, background, cast, 4)
	if err != nil {
		return err
	}
	if err := f.db.Model(start).Update("is_start_dialogue", true).Error; err != nil {
		return err
	}
	left, err := f.CreateDialogue(project, scenes, background, cast[:2], 3)
	if err != nil {
		return err
	}
	right, err := f.CreateDialogue(project, scenes, nil, cast[1:], 3)
	if err != nil {
		return err
	}
	ending, err := f.CreateDialogue(project, nil, nil, cast[:1], 2)
	if err != nil {
		return err
	}
	links := []struct{ from, to *models.Dialogue }{
		{start, left}, {start, right}, {left, ending}, {right, ending}, {ending, nil},
	}
	for _, l := range links {
		if err := f.LinkChoice(l.from, l.to); err != nil {
			return err
		}
	}
	sum.Dialogues += 4

	for _, participants := range [][]*models.Character{cast[:2], cast} {
		conversation, err := f.CreateConversation(project, texts, participants, 5)
		if err != nil {
			return err
		}
		if _, err := f.CreateQuestion(&conversation.Messages[len(conversation.Messages)-1]); err != nil {
			return err
		}
		sum.Conversations++
		sum.Questions++
	}
	return nil
}
