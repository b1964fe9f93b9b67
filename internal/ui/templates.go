package ui

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Template functions available in all templates.
var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04")
	},
	"formatTimePtr": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return "Never"
		}
		return t.Format("2006-01-02 15:04")
	},
	"fieldError": func(errs map[string]string, field string) string {
		return errs[field]
	},
	"statusColor": func(alive bool) string {
		if alive {
			return "bg-green-100 text-green-800"
		}
		return "bg-red-100 text-red-800"
	},
	"itoa": func(n int) string {
		return fmt.Sprint(n)
	},
}

// renderTemplate renders a page inside the layout.
func renderTemplate(w io.Writer, name string, data map[string]any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	layout, ok := templates["layout"]
	if !ok {
		return fmt.Errorf("layout template not found")
	}

	tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(layout)
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	_, err = tmpl.New("content").Parse(content)
	if err != nil {
		return fmt.Errorf("parse content: %w", err)
	}

	// Add shared components.
	for compName, compContent := range templates {
		if strings.HasPrefix(compName, "components/") {
			_, err = tmpl.New(filepath.Base(compName)).Parse(compContent)
			if err != nil {
				return fmt.Errorf("parse component %s: %w", compName, err)
			}
		}
	}

	return tmpl.Execute(w, data)
}

// templates holds all page templates keyed by name.
var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - Showrunner</title>
    <script src="https://cdn.tailwindcss.com"></script>
    <link rel="stylesheet" href="/static/css/app.css">
</head>
<body class="bg-gray-50 min-h-screen">
    <nav class="bg-white shadow-sm border-b">
        <div class="max-w-7xl mx-auto px-4 sm:px-6 lg:px-8">
            <div class="flex justify-between h-16">
                <div class="flex">
                    <a href="/" class="flex items-center px-2 py-2 text-xl font-bold text-green-600">Showrunner</a>
                    <div class="hidden sm:ml-6 sm:flex sm:space-x-8">
                        <a href="/characters" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Characters</a>
                        <a href="/episodes" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Episodes</a>
                        <a href="/locations" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Locations</a>
                        {{if .Session}}{{if .Session.IsAdmin}}
                        <a href="/admin" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Admin</a>
                        {{end}}{{end}}
                    </div>
                </div>
                <div class="flex items-center space-x-4">
                    {{if .Session}}
                    <span class="text-sm text-gray-500">{{.Session.Username}}</span>
                    <form action="/auth/logout" method="POST">
                        <button type="submit" class="text-sm text-gray-500 hover:text-gray-700">Logout</button>
                    </form>
                    {{else}}
                    <a href="/auth/login" class="text-sm text-gray-500 hover:text-gray-700">Login</a>
                    <a href="/auth/register" class="text-sm text-gray-500 hover:text-gray-700">Register</a>
                    {{end}}
                </div>
            </div>
        </div>
    </nav>

    <main class="max-w-7xl mx-auto py-6 sm:px-6 lg:px-8">
        {{if .FlashSuccess}}
        <div class="mb-4 rounded-md bg-green-50 p-4 text-sm text-green-700" role="status">{{.FlashSuccess}}</div>
        {{end}}
        {{if .FlashError}}
        <div class="mb-4 rounded-md bg-red-50 p-4 text-sm text-red-700" role="alert">{{.FlashError}}</div>
        {{end}}
        {{template "content" .}}
    </main>
</body>
</html>`,

	"components/pagination": `{{define "pagination"}}
{{if gt .TotalPages 1}}
<nav class="mt-6 flex items-center justify-between">
    {{if .HasPrev}}<a href="{{.PrevURL}}" class="text-sm text-green-600">&larr; Previous</a>{{else}}<span></span>{{end}}
    <span class="text-sm text-gray-500">Page {{.Page}} of {{.TotalPages}}</span>
    {{if .HasNext}}<a href="{{.NextURL}}" class="text-sm text-green-600">Next &rarr;</a>{{else}}<span></span>{{end}}
</nav>
{{end}}
{{end}}`,

	"components/alert": `{{define "alert"}}
{{if .Error}}
<div class="mb-4 rounded-md bg-red-50 p-4 text-sm text-red-700" role="alert">{{.Error}}</div>
{{end}}
{{if .Success}}
<div class="mb-4 rounded-md bg-green-50 p-4 text-sm text-green-700" role="status">{{.Success}}</div>
{{end}}
{{end}}`,

	"home": `{{define "content"}}
<div class="px-4 py-12 text-center">
    <h1 class="text-4xl font-extrabold text-gray-900">Showrunner's CMS</h1>
    <p class="mt-4 text-lg text-gray-600">Characters, episodes and locations of Rick and Morty.</p>
    {{if .Session}}<p class="mt-2 text-sm text-gray-500">Welcome back, {{.Session.Username}}</p>{{end}}
    <div class="mt-8 flex justify-center space-x-4">
        <a href="/characters" class="px-4 py-2 rounded-md bg-green-600 text-white text-sm font-medium">Characters</a>
        <a href="/episodes" class="px-4 py-2 rounded-md bg-green-600 text-white text-sm font-medium">Episodes</a>
        <a href="/locations" class="px-4 py-2 rounded-md bg-green-600 text-white text-sm font-medium">Locations</a>
    </div>
</div>
{{end}}`,

	"error": `{{define "content"}}
<div class="py-24 flex items-center justify-center">
    <div class="text-center">
        <h1 class="text-4xl font-bold text-gray-900 mb-4">{{if .Status}}{{.Status}} {{end}}Error</h1>
        <p class="text-gray-600 mb-8">{{.Message}}</p>
        <a href="/" class="text-green-600 hover:text-green-500">Return Home</a>
    </div>
</div>
{{end}}`,

	"auth/login": `{{define "content"}}
<div class="max-w-md mx-auto py-12">
    <h2 class="text-center text-3xl font-extrabold text-gray-900 mb-8">Sign in</h2>
    {{template "alert" .}}
    <form class="space-y-4" action="/auth/login" method="POST">
        <div>
            <label for="username" class="block text-sm font-medium text-gray-700">Username</label>
            <input id="username" name="username" type="text" value="{{.Username}}" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "username"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="password" class="block text-sm font-medium text-gray-700">Password</label>
            <input id="password" name="password" type="password" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "password"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <button type="submit" class="w-full py-2 px-4 rounded-md bg-green-600 text-white text-sm font-medium">Sign in</button>
    </form>
    <div class="mt-6 flex justify-between text-sm">
        <a href="/auth/forgot-password" class="text-green-600">Forgot your password?</a>
        <a href="/auth/register" class="text-green-600">Create an account</a>
    </div>
</div>
{{end}}`,

	"auth/register": `{{define "content"}}
<div class="max-w-md mx-auto py-12">
    <h2 class="text-center text-3xl font-extrabold text-gray-900 mb-8">Create an account</h2>
    {{template "alert" .}}
    <form class="space-y-4" action="/auth/register" method="POST">
        <div>
            <label for="username" class="block text-sm font-medium text-gray-700">Username</label>
            <input id="username" name="username" type="text" value="{{.Username}}" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "username"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="email" class="block text-sm font-medium text-gray-700">Email</label>
            <input id="email" name="email" type="email" value="{{.Email}}" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "email"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="password" class="block text-sm font-medium text-gray-700">Password</label>
            <input id="password" name="password" type="password" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "password"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <button type="submit" class="w-full py-2 px-4 rounded-md bg-green-600 text-white text-sm font-medium">Register</button>
    </form>
</div>
{{end}}`,

	"auth/register-success": `{{define "content"}}
<div class="max-w-md mx-auto py-12 text-center">
    <h2 class="text-3xl font-extrabold text-gray-900">Registration successful</h2>
    <p class="mt-4 text-gray-600">Welcome, {{.Username}}. You can now sign in.</p>
    <a href="/auth/login" class="mt-6 inline-block px-4 py-2 rounded-md bg-green-600 text-white text-sm font-medium">Sign in</a>
</div>
{{end}}`,

	"auth/forgot-password": `{{define "content"}}
<div class="max-w-md mx-auto py-12">
    <h2 class="text-center text-3xl font-extrabold text-gray-900 mb-8">Forgot password</h2>
    {{template "alert" .}}
    <form class="space-y-4" action="/auth/forgot-password" method="POST">
        <div>
            <label for="email" class="block text-sm font-medium text-gray-700">Email</label>
            <input id="email" name="email" type="email" value="{{.Email}}" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "email"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <button type="submit" class="w-full py-2 px-4 rounded-md bg-green-600 text-white text-sm font-medium">Send reset link</button>
    </form>
    <p class="mt-6 text-sm text-center"><a href="/auth/login" class="text-green-600">Back to sign in</a></p>
</div>
{{end}}`,

	"auth/reset-password": `{{define "content"}}
<div class="max-w-md mx-auto py-12">
    <h2 class="text-center text-3xl font-extrabold text-gray-900 mb-2">Choose a new password</h2>
    {{if .Forced}}<p class="text-center text-sm text-gray-600 mb-6">An administrator requires you to reset your password before continuing.</p>{{end}}
    {{template "alert" .}}
    <form class="space-y-4" action="/auth/reset-password/{{.Token}}" method="POST">
        <div>
            <label for="password" class="block text-sm font-medium text-gray-700">New password</label>
            <input id="password" name="password" type="password" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
        </div>
        <div>
            <label for="confirmPassword" class="block text-sm font-medium text-gray-700">Confirm password</label>
            <input id="confirmPassword" name="confirmPassword" type="password" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
        </div>
        <button type="submit" class="w-full py-2 px-4 rounded-md bg-green-600 text-white text-sm font-medium">Reset password</button>
    </form>
</div>
{{end}}`,

	"auth/reset-success": `{{define "content"}}
<div class="max-w-md mx-auto py-12 text-center">
    <h2 class="text-3xl font-extrabold text-gray-900">Password updated</h2>
    <p class="mt-4 text-gray-600">Your password has been reset. Please sign in with your new password.</p>
    <a href="/auth/login" class="mt-6 inline-block px-4 py-2 rounded-md bg-green-600 text-white text-sm font-medium">Sign in</a>
</div>
{{end}}`,

	"admin/index": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <h1 class="text-2xl font-semibold text-gray-900 mb-6">Users</h1>
    <div class="bg-white shadow overflow-hidden sm:rounded-lg">
        <table class="min-w-full divide-y divide-gray-200">
            <thead class="bg-gray-50">
                <tr>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Username</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Email</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Role</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Status</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Last login</th>
                    <th class="px-6 py-3"></th>
                </tr>
            </thead>
            <tbody class="divide-y divide-gray-200">
                {{range .Users}}
                <tr>
                    <td class="px-6 py-4 text-sm text-gray-900">{{.Username}}</td>
                    <td class="px-6 py-4 text-sm text-gray-500">{{.Email}}</td>
                    <td class="px-6 py-4 text-sm text-gray-500">{{.Role}}</td>
                    <td class="px-6 py-4 text-sm">
                        {{if .IsBlocked}}<span class="text-red-600">Blocked</span>{{else}}<span class="text-green-600">Active</span>{{end}}
                        {{if .RequirePasswordReset}}<span class="ml-2 text-yellow-600">Reset pending</span>{{end}}
                    </td>
                    <td class="px-6 py-4 text-sm text-gray-500">{{formatTimePtr .LastLoginAt}}</td>
                    <td class="px-6 py-4 text-sm text-right space-x-2">
                        {{if ne .ID $.Session.UserID}}
                        <form class="inline" action="/admin/block/{{.ID}}" method="POST">
                            <button type="submit" class="text-yellow-700">{{if .IsBlocked}}Unblock{{else}}Block{{end}}</button>
                        </form>
                        <form class="inline" action="/admin/reset-password/{{.ID}}" method="POST">
                            <button type="submit" class="text-blue-700">Force reset</button>
                        </form>
                        <form class="inline" action="/admin/delete/{{.ID}}" method="POST" onsubmit="return confirm('Delete this user?')">
                            <button type="submit" class="text-red-700">Delete</button>
                        </form>
                        {{else}}
                        <span class="text-gray-400">You</span>
                        {{end}}
                    </td>
                </tr>
                {{else}}
                <tr><td colspan="6" class="px-6 py-4 text-sm text-gray-500 text-center">No users</td></tr>
                {{end}}
            </tbody>
        </table>
    </div>
</div>
{{end}}`,

	"characters/list": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <div class="flex justify-between items-center mb-6">
        <h1 class="text-2xl font-semibold text-gray-900">Characters <span class="text-sm text-gray-500">({{.Total}})</span></h1>
        {{if .Session}}{{if .Session.IsAdmin}}<a href="/characters/create" class="px-4 py-2 rounded-md bg-green-600 text-white text-sm font-medium">New character</a>{{end}}{{end}}
    </div>
    <form method="GET" action="/characters" class="mb-6 grid grid-cols-2 md:grid-cols-6 gap-2">
        <input name="name" value="{{.Filter.Name}}" placeholder="Name" class="rounded-md border border-gray-300 px-2 py-1 text-sm">
        <input name="species" value="{{.Filter.Species}}" placeholder="Species" class="rounded-md border border-gray-300 px-2 py-1 text-sm">
        <select name="gender" class="rounded-md border border-gray-300 px-2 py-1 text-sm">
            <option value="">Any gender</option>
            {{range .Genders}}<option value="{{.}}" {{if eq . $.Filter.Gender}}selected{{end}}>{{.}}</option>{{end}}
        </select>
        <select name="status" class="rounded-md border border-gray-300 px-2 py-1 text-sm">
            <option value="">Any status</option>
            <option value="alive" {{if eq .Filter.Status "alive"}}selected{{end}}>Alive</option>
            <option value="dead" {{if eq .Filter.Status "dead"}}selected{{end}}>Dead</option>
        </select>
        <input name="location" value="{{.Filter.Location}}" placeholder="Location" class="rounded-md border border-gray-300 px-2 py-1 text-sm">
        <button type="submit" class="rounded-md bg-gray-800 text-white text-sm px-2 py-1">Search</button>
    </form>
    <div class="grid grid-cols-1 gap-4 sm:grid-cols-2 lg:grid-cols-4">
        {{range .Characters}}
        <a href="/characters/{{.CharacterID}}" class="bg-white shadow rounded-lg overflow-hidden">
            <img src="{{.Image}}" alt="{{.Name}}" class="w-full h-48 object-cover">
            <div class="p-4">
                <h3 class="font-semibold text-gray-900">{{.Name}}</h3>
                <span class="inline-block mt-1 px-2 text-xs rounded-full {{statusColor .IsAlive}}">{{.Status}}</span>
                <p class="mt-1 text-sm text-gray-500">{{.Species}} &middot; {{.Location.Name}}</p>
            </div>
        </a>
        {{else}}
        <p class="text-sm text-gray-500">No characters found.</p>
        {{end}}
    </div>
    {{template "pagination" .Pagination}}
</div>
{{end}}`,

	"characters/detail": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <div class="bg-white shadow rounded-lg overflow-hidden md:flex">
        <img src="{{.Character.Image}}" alt="{{.Character.Name}}" class="md:w-72 object-cover">
        <div class="p-6 flex-1">
            <h1 class="text-2xl font-semibold text-gray-900">{{.Character.Name}}</h1>
            <span class="inline-block mt-1 px-2 text-xs rounded-full {{statusColor .Character.IsAlive}}">{{.Character.Status}}</span>
            <dl class="mt-4 grid grid-cols-2 gap-2 text-sm">
                <dt class="text-gray-500">Species</dt><dd>{{.Character.Species}}</dd>
                <dt class="text-gray-500">Type</dt><dd>{{if .Character.Type}}{{.Character.Type}}{{else}}-{{end}}</dd>
                <dt class="text-gray-500">Gender</dt><dd>{{.Character.Gender}}</dd>
                <dt class="text-gray-500">Last known location</dt>
                <dd>{{if .Character.Location.ID}}<a href="/locations/{{.Character.Location.ID}}" class="text-green-600">{{.Character.Location.Name}}</a>{{else}}{{.Character.Location.Name}}{{end}}</dd>
                <dt class="text-gray-500">Origin</dt>
                <dd>{{if .Character.Origin.ID}}<a href="/locations/{{.Character.Origin.ID}}" class="text-green-600">{{.Character.Origin.Name}}</a>{{else}}{{.Character.Origin.Name}}{{end}}</dd>
            </dl>
            <h2 class="mt-6 text-sm font-medium text-gray-700">Episodes</h2>
            <p class="mt-1 text-sm">{{range .Character.Episodes}}<a href="/episodes/{{.}}" class="mr-2 text-green-600">#{{.}}</a>{{else}}None{{end}}</p>
            {{if .Session}}{{if .Session.IsAdmin}}
            <div class="mt-6 flex space-x-4">
                <a href="/characters/edit/{{.Character.CharacterID}}" class="text-sm text-blue-700">Edit</a>
                <form action="/characters/delete/{{.Character.CharacterID}}" method="POST" onsubmit="return confirm('Delete this character?')">
                    <button type="submit" class="text-sm text-red-700">Delete</button>
                </form>
            </div>
            {{end}}{{end}}
        </div>
    </div>
</div>
{{end}}`,

	"characters/form": `{{define "content"}}
<div class="max-w-2xl mx-auto px-4 py-6">
    <h1 class="text-2xl font-semibold text-gray-900 mb-6">{{.Title}}</h1>
    <form action="{{.Action}}" method="POST" class="space-y-4">
        <div>
            <label for="name" class="block text-sm font-medium text-gray-700">Name</label>
            <input id="name" name="name" value="{{.Form.Name}}" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "name"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="isAlive" class="block text-sm font-medium text-gray-700">Status</label>
            <select id="isAlive" name="isAlive" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
                <option value="true" {{if eq .Form.IsAlive "true"}}selected{{end}}>Alive</option>
                <option value="false" {{if eq .Form.IsAlive "false"}}selected{{end}}>Dead</option>
            </select>
            {{with fieldError .Errors "isAlive"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="species" class="block text-sm font-medium text-gray-700">Species</label>
            <input id="species" name="species" value="{{.Form.Species}}" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "species"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="type" class="block text-sm font-medium text-gray-700">Type</label>
            <input id="type" name="type" value="{{.Form.Type}}" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
        </div>
        <div>
            <label for="gender" class="block text-sm font-medium text-gray-700">Gender</label>
            <select id="gender" name="gender" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
                {{range .Genders}}<option value="{{.}}" {{if eq . $.Form.Gender}}selected{{end}}>{{.}}</option>{{end}}
            </select>
            {{with fieldError .Errors "gender"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="image" class="block text-sm font-medium text-gray-700">Image URL</label>
            <input id="image" name="image" value="{{.Form.Image}}" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "image"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="episode" class="block text-sm font-medium text-gray-700">Episodes (comma separated ids)</label>
            <input id="episode" name="episode" value="{{.Form.Episode}}" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "episode"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="locationId" class="block text-sm font-medium text-gray-700">Last known location</label>
            <select id="locationId" name="locationId" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
                <option value="0">Unknown</option>
                {{range .Locations}}<option value="{{.ID}}" {{if eq (itoa .ID) $.Form.LocationID}}selected{{end}}>{{.Name}}</option>{{end}}
            </select>
            {{with fieldError .Errors "locationId"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="originId" class="block text-sm font-medium text-gray-700">Origin</label>
            <select id="originId" name="originId" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
                <option value="0">Unknown</option>
                {{range .Locations}}<option value="{{.ID}}" {{if eq (itoa .ID) $.Form.OriginID}}selected{{end}}>{{.Name}}</option>{{end}}
            </select>
            {{with fieldError .Errors "originId"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <button type="submit" class="px-4 py-2 rounded-md bg-green-600 text-white text-sm font-medium">Save</button>
    </form>
</div>
{{end}}`,

	"episodes/list": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <div class="flex justify-between items-center mb-6">
        <h1 class="text-2xl font-semibold text-gray-900">Episodes <span class="text-sm text-gray-500">({{.Total}})</span></h1>
        {{if .Session}}{{if .Session.IsAdmin}}<a href="/episodes/create" class="px-4 py-2 rounded-md bg-green-600 text-white text-sm font-medium">New episode</a>{{end}}{{end}}
    </div>
    <form method="GET" action="/episodes" class="mb-6">
        <select name="season" onchange="this.form.submit()" class="rounded-md border border-gray-300 px-2 py-1 text-sm">
            <option value="all">All seasons</option>
            {{range .Seasons}}<option value="{{.}}" {{if eq . $.Season}}selected{{end}}>{{.}}</option>{{end}}
        </select>
    </form>
    <div class="bg-white shadow overflow-hidden sm:rounded-lg">
        <table class="min-w-full divide-y divide-gray-200">
            <thead class="bg-gray-50">
                <tr>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Code</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Name</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Air date</th>
                </tr>
            </thead>
            <tbody class="divide-y divide-gray-200">
                {{range .Episodes}}
                <tr>
                    <td class="px-6 py-4 text-sm text-gray-500">{{.Code}}</td>
                    <td class="px-6 py-4 text-sm"><a href="/episodes/{{.EpisodeID}}" class="text-green-600">{{.Name}}</a></td>
                    <td class="px-6 py-4 text-sm text-gray-500">{{.AirDate}}</td>
                </tr>
                {{else}}
                <tr><td colspan="3" class="px-6 py-4 text-sm text-gray-500 text-center">No episodes found.</td></tr>
                {{end}}
            </tbody>
        </table>
    </div>
    {{template "pagination" .Pagination}}
</div>
{{end}}`,

	"episodes/detail": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <h1 class="text-2xl font-semibold text-gray-900">{{.Episode.Name}}</h1>
    <p class="mt-1 text-sm text-gray-500">{{.Episode.Code}} &middot; {{.Episode.AirDate}}</p>
    {{if .Session}}{{if .Session.IsAdmin}}
    <div class="mt-4 flex space-x-4">
        <a href="/episodes/edit/{{.Episode.EpisodeID}}" class="text-sm text-blue-700">Edit</a>
        <form action="/episodes/delete/{{.Episode.EpisodeID}}" method="POST" onsubmit="return confirm('Delete this episode?')">
            <button type="submit" class="text-sm text-red-700">Delete</button>
        </form>
    </div>
    {{end}}{{end}}
    <h2 class="mt-8 mb-4 text-lg font-medium text-gray-900">Characters</h2>
    <div class="grid grid-cols-2 gap-4 sm:grid-cols-4 lg:grid-cols-6">
        {{range .Characters}}
        <a href="/characters/{{.CharacterID}}" class="bg-white shadow rounded-lg overflow-hidden">
            <img src="{{.Image}}" alt="{{.Name}}" class="w-full h-32 object-cover">
            <p class="p-2 text-sm text-gray-900">{{.Name}}</p>
        </a>
        {{else}}
        <p class="text-sm text-gray-500">No characters recorded.</p>
        {{end}}
    </div>
</div>
{{end}}`,

	"episodes/form": `{{define "content"}}
<div class="max-w-2xl mx-auto px-4 py-6">
    <h1 class="text-2xl font-semibold text-gray-900 mb-6">{{.Title}}</h1>
    <form action="{{.Action}}" method="POST" class="space-y-4">
        <div>
            <label for="episodeId" class="block text-sm font-medium text-gray-700">Episode ID</label>
            <input id="episodeId" name="episodeId" value="{{.Form.EpisodeID}}" {{if .IsEdit}}readonly{{end}} class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "episodeId"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="name" class="block text-sm font-medium text-gray-700">Name</label>
            <input id="name" name="name" value="{{.Form.Name}}" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "name"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="air_date" class="block text-sm font-medium text-gray-700">Air date</label>
            <input id="air_date" name="air_date" value="{{.Form.AirDate}}" placeholder="December 2, 2013" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "air_date"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="episode" class="block text-sm font-medium text-gray-700">Code</label>
            <input id="episode" name="episode" value="{{.Form.Code}}" placeholder="S01E01" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "episode"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="characters" class="block text-sm font-medium text-gray-700">Characters (comma separated ids)</label>
            <input id="characters" name="characters" value="{{.Form.Characters}}" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "characters"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <button type="submit" class="px-4 py-2 rounded-md bg-green-600 text-white text-sm font-medium">Save</button>
    </form>
</div>
{{end}}`,

	"locations/list": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <div class="flex justify-between items-center mb-6">
        <h1 class="text-2xl font-semibold text-gray-900">Locations <span class="text-sm text-gray-500">({{.Total}})</span></h1>
        {{if .Session}}{{if .Session.IsAdmin}}<a href="/locations/create" class="px-4 py-2 rounded-md bg-green-600 text-white text-sm font-medium">New location</a>{{end}}{{end}}
    </div>
    <form method="GET" action="/locations" class="mb-6 flex space-x-2">
        <select name="type" class="rounded-md border border-gray-300 px-2 py-1 text-sm">
            <option value="all">All types</option>
            {{range .Types}}<option value="{{.}}" {{if eq . $.Filter.Type}}selected{{end}}>{{.}}</option>{{end}}
        </select>
        <select name="dimension" class="rounded-md border border-gray-300 px-2 py-1 text-sm">
            <option value="all">All dimensions</option>
            {{range .Dimensions}}<option value="{{.}}" {{if eq . $.Filter.Dimension}}selected{{end}}>{{.}}</option>{{end}}
        </select>
        <button type="submit" class="rounded-md bg-gray-800 text-white text-sm px-3 py-1">Filter</button>
    </form>
    <div class="bg-white shadow overflow-hidden sm:rounded-lg">
        <table class="min-w-full divide-y divide-gray-200">
            <thead class="bg-gray-50">
                <tr>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Name</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Type</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Dimension</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Residents</th>
                </tr>
            </thead>
            <tbody class="divide-y divide-gray-200">
                {{range .Locations}}
                <tr>
                    <td class="px-6 py-4 text-sm"><a href="/locations/{{.LocationID}}" class="text-green-600">{{.Name}}</a></td>
                    <td class="px-6 py-4 text-sm text-gray-500">{{.Type}}</td>
                    <td class="px-6 py-4 text-sm text-gray-500">{{.Dimension}}</td>
                    <td class="px-6 py-4 text-sm text-gray-500">{{len .Residents}}</td>
                </tr>
                {{else}}
                <tr><td colspan="4" class="px-6 py-4 text-sm text-gray-500 text-center">No locations found.</td></tr>
                {{end}}
            </tbody>
        </table>
    </div>
    {{template "pagination" .Pagination}}
</div>
{{end}}`,

	"locations/detail": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <h1 class="text-2xl font-semibold text-gray-900">{{.Location.Name}}</h1>
    <p class="mt-1 text-sm text-gray-500">{{.Location.Type}} &middot; {{.Location.Dimension}}</p>
    {{with .Location.Coordinates}}<p class="mt-1 text-xs text-gray-400">{{.Lat}}, {{.Lng}}</p>{{end}}
    {{if .Session}}{{if .Session.IsAdmin}}
    <div class="mt-4 flex space-x-4">
        <a href="/locations/edit/{{.Location.LocationID}}" class="text-sm text-blue-700">Edit</a>
        <form action="/locations/delete/{{.Location.LocationID}}" method="POST" onsubmit="return confirm('Delete this location?')">
            <button type="submit" class="text-sm text-red-700">Delete</button>
        </form>
    </div>
    {{end}}{{end}}
    <h2 class="mt-8 mb-4 text-lg font-medium text-gray-900">Residents</h2>
    <div class="grid grid-cols-2 gap-4 sm:grid-cols-4 lg:grid-cols-6">
        {{range .Residents}}
        <a href="/characters/{{.CharacterID}}" class="bg-white shadow rounded-lg overflow-hidden">
            <img src="{{.Image}}" alt="{{.Name}}" class="w-full h-32 object-cover">
            <p class="p-2 text-sm text-gray-900">{{.Name}}</p>
        </a>
        {{else}}
        <p class="text-sm text-gray-500">No known residents.</p>
        {{end}}
    </div>
</div>
{{end}}`,

	"locations/form": `{{define "content"}}
<div class="max-w-2xl mx-auto px-4 py-6">
    <h1 class="text-2xl font-semibold text-gray-900 mb-6">{{.Title}}</h1>
    <form action="{{.Action}}" method="POST" class="space-y-4">
        <div>
            <label for="locationId" class="block text-sm font-medium text-gray-700">Location ID</label>
            <input id="locationId" name="locationId" value="{{.Form.LocationID}}" {{if .IsEdit}}readonly{{end}} class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "locationId"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="name" class="block text-sm font-medium text-gray-700">Name</label>
            <input id="name" name="name" value="{{.Form.Name}}" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
            {{with fieldError .Errors "name"}}<p class="mt-1 text-sm text-red-600">{{.}}</p>{{end}}
        </div>
        <div>
            <label for="type" class="block text-sm font-medium text-gray-700">Type</label>
            <input id="type" name="type" value="{{.Form.Type}}" placeholder="Planet" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
        </div>
        <div>
            <label for="dimension" class="block text-sm font-medium text-gray-700">Dimension</label>
            <input id="dimension" name="dimension" value="{{.Form.Dimension}}" class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2">
        </div>
        <button type="submit" class="px-4 py-2 rounded-md bg-green-600 text-white text-sm font-medium">Save</button>
    </form>
</div>
{{end}}`,
}
