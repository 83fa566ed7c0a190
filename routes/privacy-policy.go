package routes

import (
	"net/http"
)

const privacyPolicyHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Amplify Youth Voices | Privacy</title>
<style>body{font-family:sans-serif;max-width:720px;margin:2rem auto;line-height:1.5}</style>
</head>
<body>
<h1>Privacy</h1>
<h2>What we keep</h2>
<ul>
<li>Your account: username, email, school or organization, and a hashed password.</li>
<li>Videos and thumbnails you upload, plus transcripts generated for videos without a script.</li>
<li>Comments and likes you leave on videos.</li>
</ul>
<h2>Who sees it</h2>
<p>Your profile and public videos are visible to everyone. Private videos are left out of listings and matching.</p>
<h2>Matching</h2>
<p>Organizers pick advocacy causes; we detect causes in speeches from their titles, topics, scripts and transcripts. Both are used only to suggest speakers to organizers and organizations to speakers.</p>
<h2>Deleting your account</h2>
<p>Deleting your account removes your videos, comments, likes and profile.</p>
<p>Questions: <a href="mailto:support@amplifyyouthvoices.org">support@amplifyyouthvoices.org</a></p>
</body>
</html>
`

// PrivacyPolicyHandler serves the static privacy page.
func PrivacyPolicyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(privacyPolicyHTML))
}
