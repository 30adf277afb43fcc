package email

import "html/template"

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Subject}}</title>
</head>
<body style="margin:0;padding:0;background:#f4f4f5;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;color:#18181b;">
<div style="max-width:600px;margin:0 auto;padding:24px;">
<div style="background:#2563eb;color:#ffffff;padding:20px 24px;border-radius:8px 8px 0 0;"><h1 style="margin:0;font-size:20px;">DevLink</h1></div>
<div style="background:#ffffff;padding:24px;border-radius:0 0 8px 8px;">
<p>Hi {{.Name}},</p>
{{template "content" .}}
</div>
<p style="font-size:12px;color:#71717a;text-align:center;">You are receiving this because email notifications are on. <a href="{{.SettingsURL}}">Manage notification settings</a></p>
</div>
</body>
</html>{{end}}`

const button = `{{define "button"}}<p><a href="{{.URL}}" style="display:inline-block;background:#2563eb;color:#ffffff;padding:10px 18px;border-radius:6px;text-decoration:none;">{{.Text}}</a></p>{{end}}`

var bodies = map[string]string{
	TemplateWelcome: `{{define "content"}}<p>Welcome to DevLink! Your profile is the place to showcase your projects, write about what you build and connect with clients and other developers.</p>
{{template "button" (link .DashboardURL "Go to your dashboard")}}{{end}}`,

	TemplateNewFollower: `{{define "content"}}<p><strong>{{.FollowerName}}</strong> started following you.</p>
{{if .ProfileURL}}{{template "button" (link .ProfileURL "View profile")}}{{end}}{{end}}`,

	TemplateNewLike: `{{define "content"}}<p><strong>{{.LikerName}}</strong> liked <strong>{{.ContentTitle}}</strong>.</p>
{{if .ContentURL}}{{template "button" (link .ContentURL "View")}}{{end}}{{end}}`,

	TemplateNewComment: `{{define "content"}}<p><strong>{{.CommenterName}}</strong> commented on <strong>{{.ContentTitle}}</strong>.</p>
{{if .Comment}}<blockquote style="border-left:3px solid #e4e4e7;margin:0;padding-left:12px;color:#52525b;">{{.Comment}}</blockquote>{{end}}
{{if .ContentURL}}{{template "button" (link .ContentURL "Reply")}}{{end}}{{end}}`,

	TemplateNewMessage: `{{define "content"}}<p>You have a new message from <strong>{{.SenderName}}</strong>.</p>
{{if .Preview}}<blockquote style="border-left:3px solid #e4e4e7;margin:0;padding-left:12px;color:#52525b;">{{.Preview}}</blockquote>{{end}}
{{template "button" (link .InboxURL "Open inbox")}}{{end}}`,

	TemplateCollaborationRequest: `{{define "content"}}<p><strong>{{.SenderName}}</strong> would like to collaborate with you{{if .Title}} on <strong>{{.Title}}</strong>{{end}}.</p>
{{if .Message}}<blockquote style="border-left:3px solid #e4e4e7;margin:0;padding-left:12px;color:#52525b;">{{.Message}}</blockquote>{{end}}
{{template "button" (link .RequestsURL "Respond to request")}}{{end}}`,

	TemplateCollaborationAccepted: `{{define "content"}}<p><strong>{{.ReceiverName}}</strong> accepted your collaboration request{{if .Title}} for <strong>{{.Title}}</strong>{{end}}.</p>
{{template "button" (link .RequestsURL "View collaborations")}}{{end}}`,

	TemplateTestimonialReceived: `{{define "content"}}<p><strong>{{.AuthorName}}</strong> wrote a testimonial for you. It will appear on your profile once you approve it.</p>
{{if .Excerpt}}<blockquote style="border-left:3px solid #e4e4e7;margin:0;padding-left:12px;color:#52525b;">{{.Excerpt}}</blockquote>{{end}}
{{template "button" (link .ReviewURL "Review testimonial")}}{{end}}`,

	TemplateTestimonialApproved: `{{define "content"}}<p>Your testimonial for <strong>{{.TargetName}}</strong> was approved and is now visible on their profile. Thank you for sharing your experience.</p>{{end}}`,

	TemplateContentApproved: `{{define "content"}}<p>Your {{.ContentType}}{{if .Title}} <strong>{{.Title}}</strong>{{end}} has been approved and is now public.</p>
{{if .ContentURL}}{{template "button" (link .ContentURL "View it live")}}{{end}}{{end}}`,

	TemplateContentRejected: `{{define "content"}}<p>Your {{.ContentType}}{{if .Title}} <strong>{{.Title}}</strong>{{end}} was not approved yet.</p>
{{if .Reason}}<p>Reviewer notes: {{.Reason}}</p>{{end}}
{{template "button" (link .DashboardURL "Update and resubmit")}}{{end}}`,

	TemplateNewProject: `{{define "content"}}<p><strong>{{.AuthorName}}</strong> just published a new project{{if .Title}}: <strong>{{.Title}}</strong>{{end}}.</p>
{{if .URL}}{{template "button" (link .URL "See the project")}}{{end}}{{end}}`,

	TemplateNewBlogPost: `{{define "content"}}<p><strong>{{.AuthorName}}</strong> published a new post{{if .Title}}: <strong>{{.Title}}</strong>{{end}}.</p>
{{if .URL}}{{template "button" (link .URL "Read the post")}}{{end}}{{end}}`,

	TemplateServiceRequest: `{{define "content"}}<p><strong>{{.ClientName}}</strong> sent you a service request{{if .ServiceTitle}} for <strong>{{.ServiceTitle}}</strong>{{end}}.</p>
{{if .Message}}<blockquote style="border-left:3px solid #e4e4e7;margin:0;padding-left:12px;color:#52525b;">{{.Message}}</blockquote>{{end}}
{{template "button" (link .RequestsURL "View request")}}{{end}}`,

	TemplateMilestoneAchieved: `{{define "content"}}<p>Congratulations! You just reached <strong>{{.Count}} {{.Label}}</strong> on DevLink.</p>
<p>Keep sharing your work, the community is noticing.</p>
{{template "button" (link .ProfileURL "See your stats")}}{{end}}`,

	TemplateWeeklyDigest: `{{define "content"}}<p>Here is what happened on your profile this week:</p>
<table style="width:100%;border-collapse:collapse;">
{{range .Rows}}<tr><td>{{.Label}}</td><td><strong>{{.Value}}</strong></td></tr>
{{end}}</table>
{{template "button" (link .DashboardURL "Open your dashboard")}}{{end}}`,

	TemplateTestimonialReminder: `{{define "content"}}<p>You have <strong>{{.Count}} {{.Noun}}</strong> waiting for your approval. Approved testimonials show up on your profile and help clients trust your work.</p>
{{template "button" (link .ReviewURL "Review testimonials")}}{{end}}`,

	TemplateIncompleteProfileReminder: `{{define "content"}}<p>Profiles with complete details get noticed far more often. A few things are still missing from yours:</p>
{{if .Missing}}<ul>
{{range .Missing}}<li>{{.}}</li>
{{end}}</ul>{{end}}
{{template "button" (link .ProfileURL "Complete your profile")}}{{end}}`,

	TemplateReEngagement: `{{define "content"}}<p>It has been a while since we saw you on DevLink. New developers and projects join every week, and your profile is still here waiting for an update.</p>
{{template "button" (link .ExploreURL "See what's new")}}{{end}}`,

	TemplateCollaborationReminder: `{{define "content"}}<p><strong>{{.SenderName}}</strong> is still waiting for your reply to their collaboration request{{if .Title}} <strong>{{.Title}}</strong>{{end}}.</p>
{{template "button" (link .RequestsURL "Respond now")}}{{end}}`,
}

type buttonLink struct {
	URL  string
	Text string
}

var funcs = template.FuncMap{
	"link": func(url, text string) buttonLink { return buttonLink{URL: url, Text: text} },
}

var base = template.Must(template.New("email").Funcs(funcs).Parse(layoutHTML + button))

// registry holds one parsed template per email, each sharing the layout.
var registry = func() map[string]*template.Template {
	out := make(map[string]*template.Template, len(bodies))
	for name, body := range bodies {
		out[name] = template.Must(template.Must(base.Clone()).Parse(body))
	}
	return out
}()
