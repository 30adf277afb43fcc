package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/devlink-notifier/internal/model"
)

func TestRegistry_EveryTemplateParsed(t *testing.T) {
	names := []string{
		TemplateWelcome, TemplateNewFollower, TemplateNewLike, TemplateNewComment,
		TemplateNewMessage, TemplateCollaborationRequest, TemplateCollaborationAccepted,
		TemplateTestimonialReceived, TemplateTestimonialApproved, TemplateContentApproved,
		TemplateContentRejected, TemplateNewProject, TemplateNewBlogPost, TemplateServiceRequest,
		TemplateMilestoneAchieved, TemplateWeeklyDigest, TemplateTestimonialReminder,
		TemplateIncompleteProfileReminder, TemplateReEngagement, TemplateCollaborationReminder,
	}
	for _, name := range names {
		assert.Contains(t, registry, name)
	}
	assert.Len(t, registry, len(names))
}

func TestTemplates_Render(t *testing.T) {
	tpl := NewTemplates("https://devlink.io/")

	tests := []struct {
		name        string
		content     Content
		subject     string
		contains    []string
		notContains []string
	}{
		{
			name:     "welcome",
			content:  tpl.Welcome("Ada"),
			subject:  "Welcome to DevLink, Ada!",
			contains: []string{"Hi Ada,", `href="https://devlink.io/dashboard"`},
		},
		{
			name:     "new follower without profile link",
			content:  tpl.NewFollower("Ada", "Grace", ""),
			subject:  "Grace started following you",
			contains: []string{"<strong>Grace</strong> started following you."},
			notContains: []string{
				"View profile",
			},
		},
		{
			name:        "new message without preview",
			content:     tpl.NewMessage("Ada", "Linus", "  "),
			subject:     "New message from Linus",
			contains:    []string{"Open inbox", "https://devlink.io/messages"},
			notContains: []string{"<blockquote"},
		},
		{
			name:     "collaboration request escapes user input",
			content:  tpl.CollaborationRequest("Ada", "Mallory", "<script>alert(1)</script>", ""),
			subject:  "Mallory wants to collaborate with you",
			contains: []string{"&lt;script&gt;alert(1)&lt;/script&gt;"},
			notContains: []string{
				"<script>",
			},
		},
		{
			name:        "content rejected without reason",
			content:     tpl.ContentRejected("Ada", "project", "Compiler", ""),
			subject:     "Your project needs changes",
			notContains: []string{"Reviewer notes"},
		},
		{
			name:     "content approved without type",
			content:  tpl.ContentApproved("Ada", "", "", ""),
			subject:  "Your content has been approved",
			contains: []string{"Your content has been approved and is now public."},
		},
		{
			name:     "milestone",
			content:  tpl.MilestoneAchieved("Ada", model.MetricProfileViews, 500),
			subject:  "You reached 500 profile views on DevLink!",
			contains: []string{"<strong>500 profile views</strong>"},
		},
		{
			name:    "weekly digest",
			content: tpl.WeeklyDigest("Ada", DigestStats{NewFollowers: 1}),
			subject: "Your weekly DevLink digest",
			contains: []string{
				"<tr><td>New followers</td><td><strong>1</strong></td></tr>",
				"<tr><td>Profile views</td><td><strong>0</strong></td></tr>",
			},
		},
		{
			name:     "single pending testimonial",
			content:  tpl.TestimonialReminder("Ada", 1),
			subject:  "You have 1 testimonial waiting for review",
			contains: []string{"<strong>1 testimonial</strong>"},
		},
		{
			name:     "incomplete profile lists items",
			content:  tpl.IncompleteProfileReminder("Ada", []string{"Add a bio", "Add your skills"}),
			subject:  "Complete your DevLink profile",
			contains: []string{"<li>Add a bio</li>", "<li>Add your skills</li>"},
		},
		{
			name:     "nameless recipient",
			content:  tpl.ReEngagement(""),
			subject:  "We miss you on DevLink",
			contains: []string{"Hi there,", `href="https://devlink.io/settings"`},
		},
		{
			name:     "collaboration reminder without sender name",
			content:  tpl.CollaborationReminder("Ada", "", "Rust port"),
			subject:  "Reminder: Someone is waiting for your reply",
			contains: []string{"<strong>Rust port</strong>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.subject, tt.content.Subject)
			assert.NotEmpty(t, tt.content.Template)
			require.NotEmpty(t, tt.content.HTML)
			assert.True(t, strings.HasPrefix(tt.content.HTML, "<!DOCTYPE html>"))
			for _, s := range tt.contains {
				assert.Contains(t, tt.content.HTML, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, tt.content.HTML, s)
			}
		})
	}
}

func TestTemplates_Deterministic(t *testing.T) {
	tpl := NewTemplates("https://devlink.io")
	stats := DigestStats{NewFollowers: 3, ProfileViews: 12, NewLikes: 4, NewComments: 1}

	assert.Equal(t, tpl.WeeklyDigest("Ada", stats), tpl.WeeklyDigest("Ada", stats))
}

func TestTemplates_FallbackForUnknownTemplate(t *testing.T) {
	tpl := NewTemplates("https://devlink.io")

	c := tpl.render("does_not_exist", "Hello <you>", data{})
	assert.Equal(t, "Hello <you>", c.Subject)
	assert.Equal(t, "<p>Hello &lt;you&gt;</p>", c.HTML)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("  short ", 10))
	assert.Equal(t, "abc…", truncate("abcdef", 3))
}
