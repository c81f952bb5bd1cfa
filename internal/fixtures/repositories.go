package fixtures

import "infinity/internal/gitbrowser"

func Repositories() []gitbrowser.Repository {
	return []gitbrowser.Repository{
		{
			Name:        "web-application",
			Description: "Modern React web application with TypeScript",
			Language:    "TypeScript",
			Stars:       245, Forks: 89, Watching: 12,
			LastCommit: "2 hours ago",
			Commits: []gitbrowser.Commit{
				{ID: "1a2b3c4", Message: "Add user authentication system", Author: "john-doe", Time: "2 hours ago", Branch: "main"},
				{ID: "5d6e7f8", Message: "Update styling for responsive design", Author: "jane-smith", Time: "5 hours ago", Branch: "main"},
				{ID: "9g0h1i2", Message: "Fix API endpoint configuration", Author: "bob-wilson", Time: "1 day ago", Branch: "develop"},
			},
			PullRequests: []gitbrowser.PullRequest{
				{ID: 1, Title: "Feature: Add dark mode toggle", Author: "alice-cooper", Status: "open", Branch: "feature/dark-mode", Created: "3 hours ago", Comments: 5},
				{ID: 2, Title: "Fix: Resolve mobile navigation issues", Author: "charlie-brown", Status: "merged", Branch: "fix/mobile-nav", Created: "1 day ago", Comments: 8},
			},
			Files: []gitbrowser.File{
				{Name: "src/components/Auth.tsx", Type: "file", Modified: true},
				{Name: "src/styles/globals.css", Type: "file", Modified: true},
				{Name: "public", Type: "folder"},
				{Name: "README.md", Type: "file"},
			},
		},
		{
			Name:        "api-server",
			Description: "RESTful API server built with Node.js and Express",
			Language:    "JavaScript",
			Stars:       156, Forks: 34, Watching: 8,
			Private:    true,
			LastCommit: "6 hours ago",
			Commits: []gitbrowser.Commit{
				{ID: "3c4d5e6", Message: "Implement rate limiting middleware", Author: "sarah-jones", Time: "6 hours ago", Branch: "main"},
				{ID: "7f8g9h0", Message: "Add database connection pooling", Author: "mike-davis", Time: "12 hours ago", Branch: "main"},
				{ID: "1i2j3k4", Message: "Update API documentation", Author: "lisa-white", Time: "2 days ago", Branch: "docs"},
			},
			PullRequests: []gitbrowser.PullRequest{
				{ID: 3, Title: "Add GraphQL endpoint support", Author: "tom-garcia", Status: "open", Branch: "feature/graphql", Created: "5 hours ago", Comments: 12},
				{ID: 4, Title: "Security: Update dependencies", Author: "emma-taylor", Status: "review", Branch: "security/deps-update", Created: "8 hours ago", Comments: 3},
			},
			Files: []gitbrowser.File{
				{Name: "src/middleware/rateLimiter.js", Type: "file", Modified: true},
				{Name: "src/config/database.js", Type: "file", Modified: true},
				{Name: "docs/api.md", Type: "file", Modified: true},
				{Name: "package.json", Type: "file"},
			},
		},
		{
			Name:        "mobile-app",
			Description: "Cross-platform mobile application using React Native",
			Language:    "JavaScript",
			Stars:       89, Forks: 23, Watching: 15,
			LastCommit: "1 day ago",
			Commits: []gitbrowser.Commit{
				{ID: "5l6m7n8", Message: "Add push notification support", Author: "david-lee", Time: "1 day ago", Branch: "main"},
				{ID: "9o0p1q2", Message: "Optimize image loading performance", Author: "rachel-green", Time: "2 days ago", Branch: "main"},
				{ID: "3r4s5t6", Message: "Update navigation library", Author: "kevin-brown", Time: "3 days ago", Branch: "update/navigation"},
			},
			PullRequests: []gitbrowser.PullRequest{
				{ID: 5, Title: "Feature: Offline data synchronization", Author: "monica-clark", Status: "draft", Branch: "feature/offline-sync", Created: "2 days ago", Comments: 2},
			},
			Files: []gitbrowser.File{
				{Name: "src/services/notifications.js", Type: "file", Modified: true},
				{Name: "src/components/ImageLoader.js", Type: "file", Modified: true},
				{Name: "android", Type: "folder"},
				{Name: "ios", Type: "folder"},
			},
		},
		{
			Name:        "data-analytics",
			Description: "Python-based data analytics and visualization platform",
			Language:    "Python",
			Stars:       312, Forks: 67, Watching: 25,
			Private:    true,
			LastCommit: "4 hours ago",
			Commits: []gitbrowser.Commit{
				{ID: "7u8v9w0", Message: "Add machine learning model training pipeline", Author: "alan-turing", Time: "4 hours ago", Branch: "main"},
				{ID: "1x2y3z4", Message: "Implement data preprocessing utilities", Author: "ada-lovelace", Time: "8 hours ago", Branch: "main"},
				{ID: "5a6b7c8", Message: "Create interactive dashboard components", Author: "grace-hopper", Time: "1 day ago", Branch: "feature/dashboard"},
			},
			PullRequests: []gitbrowser.PullRequest{
				{ID: 6, Title: "Enhancement: Real-time data streaming", Author: "marie-curie", Status: "open", Branch: "feature/real-time", Created: "6 hours ago", Comments: 15},
				{ID: 7, Title: "Fix: Memory optimization for large datasets", Author: "katherine-johnson", Status: "review", Branch: "fix/memory-optimization", Created: "10 hours ago", Comments: 7},
			},
			Files: []gitbrowser.File{
				{Name: "src/ml/training_pipeline.py", Type: "file", Modified: true},
				{Name: "src/preprocessing/utils.py", Type: "file", Modified: true},
				{Name: "dashboard/components", Type: "folder", Modified: true},
				{Name: "requirements.txt", Type: "file"},
			},
		},
	}
}
