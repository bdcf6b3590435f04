package auth

import (
	"html/template"
)

var redirectPage = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="0;url={{.}}">
<title>Signing in</title>
</head>
<body>
<p>Signing you in&hellip;</p>
<script>window.location.replace({{.}});</script>
<noscript><p><a href="{{.}}">Continue</a></p></noscript>
</body>
</html>
`))

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>LinkedIn login failed</title></head>
<body>
<div class="linkedin-sso-error">
<p><strong>LinkedIn login failed.</strong></p>
<p>{{.}}</p>
</div>
</body>
</html>
`))

// Messages shown to the browser. Details only go to the diagnostic log.
const (
	msgConfigInvalid  = "LinkedIn login is not configured correctly. Please contact an administrator."
	msgParamsMissing  = "The login response was incomplete. Please try again."
	msgCSRFInvalid    = "Your login session could not be verified. Please try again."
	msgTokenExchange  = "LinkedIn did not accept the login. Please try again."
	msgUserinfo       = "LinkedIn did not return the profile details needed to sign you in."
	msgProviderFailed = "LinkedIn could not be reached. Please try again later."
	msgInternal       = "Something went wrong while signing you in. Please try again."
)
