package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/jwalitptl/devlink-notifier/internal/model"
)

// Content is a rendered email: subject line plus HTML body.
type Content struct {
	Template string
	Subject  string
	HTML     string
}

// Message addresses rendered content to a single recipient.
func Message(to string, c Content) *model.EmailMessage {
	return &model.EmailMessage{
		To:       to,
		Subject:  c.Subject,
		HTML:     c.HTML,
		Template: c.Template,
	}
}

// Template names, used as metric labels.
const (
	TemplateWelcome                   = "welcome"
	TemplateNewFollower               = "new_follower"
	TemplateNewLike                   = "new_like"
	TemplateNewComment                = "new_comment"
	TemplateNewMessage                = "new_message"
	TemplateCollaborationRequest      = "collaboration_request"
	TemplateCollaborationAccepted     = "collaboration_accepted"
	TemplateTestimonialReceived       = "testimonial_received"
	TemplateTestimonialApproved       = "testimonial_approved"
	TemplateContentApproved           = "content_approved"
	TemplateContentRejected           = "content_rejected"
	TemplateNewProject                = "new_project"
	TemplateNewBlogPost               = "new_blog_post"
	TemplateServiceRequest            = "service_request"
	TemplateMilestoneAchieved         = "milestone_achieved"
	TemplateWeeklyDigest              = "weekly_digest"
	TemplateTestimonialReminder       = "testimonial_reminder"
	TemplateIncompleteProfileReminder = "incomplete_profile_reminder"
	TemplateReEngagement              = "re_engagement"
	TemplateCollaborationReminder     = "collaboration_reminder"
)

// DigestStats are the counts shown in the weekly digest.
type DigestStats struct {
	NewFollowers int
	ProfileViews int
	NewLikes     int
	NewComments  int
}

// Templates renders every notification email. Methods are pure and never fail:
// blank optional fields drop their line and a render error falls back to a
// plain body carrying the subject.
type Templates struct {
	baseURL string
}

func NewTemplates(baseURL string) *Templates {
	return &Templates{baseURL: strings.TrimRight(baseURL, "/")}
}

// BaseURL is the public application URL links are built from.
func (t *Templates) BaseURL() string {
	return t.baseURL
}

// URL joins path onto the base URL.
func (t *Templates) URL(path string) string {
	return t.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (t *Templates) Welcome(name string) Content {
	return t.render(TemplateWelcome, fmt.Sprintf("Welcome to DevLink, %s!", orThere(name)), data{
		"Name":         orThere(name),
		"DashboardURL": t.URL("dashboard"),
	})
}

func (t *Templates) NewFollower(name, followerName, followerProfileURL string) Content {
	return t.render(TemplateNewFollower, fmt.Sprintf("%s started following you", orSomeone(followerName)), data{
		"Name":         orThere(name),
		"FollowerName": orSomeone(followerName),
		"ProfileURL":   followerProfileURL,
	})
}

func (t *Templates) NewLike(name, likerName, contentTitle, contentURL string) Content {
	return t.render(TemplateNewLike, fmt.Sprintf("%s liked %q", orSomeone(likerName), contentTitle), data{
		"Name":         orThere(name),
		"LikerName":    orSomeone(likerName),
		"ContentTitle": contentTitle,
		"ContentURL":   contentURL,
	})
}

func (t *Templates) NewComment(name, commenterName, contentTitle, comment, contentURL string) Content {
	return t.render(TemplateNewComment, fmt.Sprintf("%s commented on %q", orSomeone(commenterName), contentTitle), data{
		"Name":          orThere(name),
		"CommenterName": orSomeone(commenterName),
		"ContentTitle":  contentTitle,
		"Comment":       truncate(comment, 280),
		"ContentURL":    contentURL,
	})
}

func (t *Templates) NewMessage(name, senderName, preview string) Content {
	return t.render(TemplateNewMessage, fmt.Sprintf("New message from %s", orSomeone(senderName)), data{
		"Name":       orThere(name),
		"SenderName": orSomeone(senderName),
		"Preview":    truncate(preview, 140),
		"InboxURL":   t.URL("messages"),
	})
}

func (t *Templates) CollaborationRequest(name, senderName, title, message string) Content {
	return t.render(TemplateCollaborationRequest, fmt.Sprintf("%s wants to collaborate with you", orSomeone(senderName)), data{
		"Name":        orThere(name),
		"SenderName":  orSomeone(senderName),
		"Title":       title,
		"Message":     truncate(message, 500),
		"RequestsURL": t.URL("dashboard/collaborations"),
	})
}

func (t *Templates) CollaborationAccepted(name, receiverName, title string) Content {
	return t.render(TemplateCollaborationAccepted, fmt.Sprintf("%s accepted your collaboration request", orSomeone(receiverName)), data{
		"Name":         orThere(name),
		"ReceiverName": orSomeone(receiverName),
		"Title":        title,
		"RequestsURL":  t.URL("dashboard/collaborations"),
	})
}

func (t *Templates) TestimonialReceived(name, authorName, excerpt string) Content {
	return t.render(TemplateTestimonialReceived, fmt.Sprintf("%s wrote you a testimonial", orSomeone(authorName)), data{
		"Name":       orThere(name),
		"AuthorName": orSomeone(authorName),
		"Excerpt":    truncate(excerpt, 280),
		"ReviewURL":  t.URL("dashboard/testimonials"),
	})
}

func (t *Templates) TestimonialApproved(name, targetName string) Content {
	return t.render(TemplateTestimonialApproved, "Your testimonial was published", data{
		"Name":       orThere(name),
		"TargetName": orSomeone(targetName),
	})
}

func (t *Templates) ContentApproved(name, contentType, title, contentURL string) Content {
	contentType = orDefault(contentType, "content")
	return t.render(TemplateContentApproved, fmt.Sprintf("Your %s has been approved", contentType), data{
		"Name":        orThere(name),
		"ContentType": contentType,
		"Title":       title,
		"ContentURL":  contentURL,
	})
}

func (t *Templates) ContentRejected(name, contentType, title, reason string) Content {
	contentType = orDefault(contentType, "content")
	return t.render(TemplateContentRejected, fmt.Sprintf("Your %s needs changes", contentType), data{
		"Name":         orThere(name),
		"ContentType":  contentType,
		"Title":        title,
		"Reason":       strings.TrimSpace(reason),
		"DashboardURL": t.URL("dashboard"),
	})
}

func (t *Templates) NewProject(name, authorName, projectTitle, projectURL string) Content {
	return t.render(TemplateNewProject, fmt.Sprintf("%s published a new project", orSomeone(authorName)), data{
		"Name":       orThere(name),
		"AuthorName": orSomeone(authorName),
		"Title":      projectTitle,
		"URL":        projectURL,
	})
}

func (t *Templates) NewBlogPost(name, authorName, postTitle, postURL string) Content {
	return t.render(TemplateNewBlogPost, fmt.Sprintf("%s published %q", orSomeone(authorName), postTitle), data{
		"Name":       orThere(name),
		"AuthorName": orSomeone(authorName),
		"Title":      postTitle,
		"URL":        postURL,
	})
}

func (t *Templates) ServiceRequest(name, clientName, serviceTitle, message string) Content {
	return t.render(TemplateServiceRequest, fmt.Sprintf("New service request: %s", serviceTitle), data{
		"Name":         orThere(name),
		"ClientName":   orSomeone(clientName),
		"ServiceTitle": serviceTitle,
		"Message":      truncate(message, 500),
		"RequestsURL":  t.URL("dashboard/requests"),
	})
}

var metricLabels = map[model.MetricType]string{
	model.MetricFollowers:    "followers",
	model.MetricProfileViews: "profile views",
	model.MetricProjects:     "projects",
	model.MetricPosts:        "blog posts",
}

func (t *Templates) MilestoneAchieved(name string, metric model.MetricType, count int) Content {
	label, ok := metricLabels[metric]
	if !ok {
		label = string(metric)
	}
	return t.render(TemplateMilestoneAchieved, fmt.Sprintf("You reached %d %s on DevLink!", count, label), data{
		"Name":       orThere(name),
		"Count":      count,
		"Label":      label,
		"ProfileURL": t.URL("dashboard"),
	})
}

type digestRow struct {
	Label string
	Value int
}

func (t *Templates) WeeklyDigest(name string, stats DigestStats) Content {
	return t.render(TemplateWeeklyDigest, "Your weekly DevLink digest", data{
		"Name": orThere(name),
		"Rows": []digestRow{
			{"New followers", stats.NewFollowers},
			{"Profile views", stats.ProfileViews},
			{"New likes", stats.NewLikes},
			{"New comments", stats.NewComments},
		},
		"DashboardURL": t.URL("dashboard"),
	})
}

func (t *Templates) TestimonialReminder(name string, pendingCount int) Content {
	noun := "testimonials"
	if pendingCount == 1 {
		noun = "testimonial"
	}
	return t.render(TemplateTestimonialReminder, fmt.Sprintf("You have %d %s waiting for review", pendingCount, noun), data{
		"Name":      orThere(name),
		"Count":     pendingCount,
		"Noun":      noun,
		"ReviewURL": t.URL("dashboard/testimonials"),
	})
}

func (t *Templates) IncompleteProfileReminder(name string, missing []string) Content {
	return t.render(TemplateIncompleteProfileReminder, "Complete your DevLink profile", data{
		"Name":       orThere(name),
		"Missing":    missing,
		"ProfileURL": t.URL("dashboard/profile"),
	})
}

func (t *Templates) ReEngagement(name string) Content {
	return t.render(TemplateReEngagement, "We miss you on DevLink", data{
		"Name":        orThere(name),
		"ExploreURL": t.URL("developers"),
	})
}

func (t *Templates) CollaborationReminder(name, senderName, title string) Content {
	return t.render(TemplateCollaborationReminder, fmt.Sprintf("Reminder: %s is waiting for your reply", orSomeone(senderName)), data{
		"Name":        orThere(name),
		"SenderName":  orSomeone(senderName),
		"Title":       title,
		"RequestsURL": t.URL("dashboard/collaborations"),
	})
}

type data map[string]interface{}

func (t *Templates) render(name, subject string, d data) Content {
	d["Subject"] = subject
	d["SettingsURL"] = t.URL("settings")

	tmpl, ok := registry[name]
	if !ok {
		return fallback(name, subject)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", d); err != nil {
		return fallback(name, subject)
	}
	return Content{Template: name, Subject: subject, HTML: buf.String()}
}

func fallback(name, subject string) Content {
	return Content{
		Template: name,
		Subject:  subject,
		HTML:     "<p>" + template.HTMLEscapeString(subject) + "</p>",
	}
}

func orThere(name string) string {
	return orDefault(name, "there")
}

func orSomeone(name string) string {
	return orDefault(name, "Someone")
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
