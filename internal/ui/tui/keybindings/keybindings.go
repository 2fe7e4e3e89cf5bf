package keybindings

import tea "github.com/charmbracelet/bubbletea"

// Action represents a specific action that can be triggered by a key
type Action string

// Define all possible actions
const (
	// Global actions
	ActionQuit       Action = "quit"
	ActionToggleHelp Action = "toggle_help"
	ActionLogout     Action = "logout"
	ActionBack       Action = "back" // General purpose "go back" or "cancel"

	// Navigation actions
	ActionMoveUp     Action = "move_up"
	ActionMoveDown   Action = "move_down"
	ActionPageUp     Action = "page_up"
	ActionPageDown   Action = "page_down"
	ActionMoveTop    Action = "move_top"
	ActionMoveBottom Action = "move_bottom"

	// Login view actions
	ActionSubmitLogin Action = "submit_login"
	ActionNextField   Action = "next_field"

	// Course list actions
	ActionOpenCourse        Action = "open_course"
	ActionRefreshCourseList Action = "refresh_course_list"
	ActionEnableSearch      Action = "enable_search"
	ActionSearchComplete    Action = "search_complete"
	ActionToggleInProgress  Action = "toggle_in_progress_filter"

	// Course detail actions
	ActionPlayLesson    Action = "play_lesson"
	ActionRefreshCourse Action = "refresh_course"

	// Lesson viewer actions
	ActionStopPlayback Action = "stop_playback"
)

// ContextName represents a specific UI context in the application that has its own keybinds
type ContextName string

const (
	ContextGlobal       ContextName = "global"
	ContextLogin        ContextName = "login"
	ContextCourseList   ContextName = "course_list"
	ContextCourseDetail ContextName = "course_detail"
	ContextLessonViewer ContextName = "lesson_viewer"
	ContextSearchMode   ContextName = "search_mode"
	ContextHelp         ContextName = "help"
)

var ContextBindings = map[ContextName][]Binding{
	ContextGlobal:       globalBindings,
	ContextLogin:        loginBindings,
	ContextCourseList:   courseListBindings,
	ContextCourseDetail: courseDetailBindings,
	ContextLessonViewer: lessonViewerBindings,
	ContextSearchMode:   searchModeBindings,
	ContextHelp:         helpBindings,
}

// KeyMap stores the mappings from actions to key sequences for each context
type KeyMap struct {
	Primary   string
	Secondary string // Optional alternative key
	Help      string // Description for help screen
}

// Binding maps an action to its keys and help text
type Binding struct {
	Action Action
	KeyMap KeyMap
}

// navigationBindings contains general navigation bindings for consistent navigation across the app
var navigationBindings = []Binding{
	{
		Action: ActionMoveUp,
		KeyMap: KeyMap{
			Primary:   "up",
			Secondary: "k",
			Help:      "Move cursor up",
		},
	},
	{
		Action: ActionMoveDown,
		KeyMap: KeyMap{
			Primary:   "down",
			Secondary: "j",
			Help:      "Move cursor down",
		},
	},
	{
		Action: ActionPageUp,
		KeyMap: KeyMap{
			Primary: "pgup",
			Help:    "Move up one page",
		},
	},
	{
		Action: ActionPageDown,
		KeyMap: KeyMap{
			Primary: "pgdown",
			Help:    "Move down one page",
		},
	},
	{
		Action: ActionMoveTop,
		KeyMap: KeyMap{
			Primary: "home",
			Help:    "Move top of view",
		},
	},
	{
		Action: ActionMoveBottom,
		KeyMap: KeyMap{
			Primary: "end",
			Help:    "Move bottom of view",
		},
	},
}

// globalBindings contains key bindings that work across all views
var globalBindings = []Binding{
	{
		Action: ActionQuit,
		KeyMap: KeyMap{
			Primary: "ctrl+c",
			Help:    "Quit application",
		},
	},
	{
		Action: ActionToggleHelp,
		KeyMap: KeyMap{
			Primary: "ctrl+h",
			Help:    "Toggle help screen",
		},
	},
	{
		Action: ActionLogout,
		KeyMap: KeyMap{
			Primary: "ctrl+l",
			Help:    "Logout (clear token)",
		},
	},
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary: "esc",
			Help:    "Go back/cancel current action",
		},
	},
}

// loginBindings contains key bindings specific to the login view
var loginBindings = []Binding{
	{
		Action: ActionSubmitLogin,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Submit credentials",
		},
	},
	{
		Action: ActionNextField,
		KeyMap: KeyMap{
			Primary:   "tab",
			Secondary: "shift+tab",
			Help:      "Switch between email and password",
		},
	},
}

// helpBindings contains key bindings specific to the help view
var helpBindings = withNavigation([]Binding{})

// courseListBindings contains key bindings specific to the course list view
var courseListBindings = withNavigation([]Binding{
	{
		Action: ActionOpenCourse,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Open course",
		},
	},
	{
		Action: ActionRefreshCourseList,
		KeyMap: KeyMap{
			Primary: "r",
			Help:    "Refresh course list",
		},
	},
	{
		Action: ActionEnableSearch,
		KeyMap: KeyMap{
			Primary:   "/",
			Secondary: "ctrl+f",
			Help:      "Search courses",
		},
	},
	{
		Action: ActionToggleInProgress,
		KeyMap: KeyMap{
			Primary: "a",
			Help:    "Toggle in-progress filter",
		},
	},
})

// courseDetailBindings contains key bindings specific to the course detail view
var courseDetailBindings = withNavigation([]Binding{
	{
		Action: ActionPlayLesson,
		KeyMap: KeyMap{
			Primary:   "enter",
			Secondary: "p",
			Help:      "Play selected lesson",
		},
	},
	{
		Action: ActionRefreshCourse,
		KeyMap: KeyMap{
			Primary: "r",
			Help:    "Refresh course content",
		},
	},
})

// lessonViewerBindings contains key bindings specific to the lesson viewer
var lessonViewerBindings = []Binding{
	{
		Action: ActionStopPlayback,
		KeyMap: KeyMap{
			Primary:   "esc",
			Secondary: "q",
			Help:      "Stop playback and return to the course",
		},
	},
}

// searchModeBindings contains key bindings specific for when search mode is active
var searchModeBindings = []Binding{
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary:   "esc",
			Secondary: "ctrl+f",
			Help:      "Exit search mode and remove the filter",
		},
	},
	{
		Action: ActionSearchComplete,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Apply the search filter and return control to the original view",
		},
	},
}

// GetActionKey returns the primary key for an action
func GetActionKey(action Action, bindings []Binding) string {
	for _, binding := range bindings {
		if binding.Action == action {
			return binding.KeyMap.Primary
		}
	}
	return ""
}

// GetBindingByKey returns the action and help text for a given key
func GetBindingByKey(key string, bindings []Binding) (Action, string) {
	for _, binding := range bindings {
		if binding.KeyMap.Primary == key || binding.KeyMap.Secondary == key {
			return binding.Action, binding.KeyMap.Help
		}
	}
	return "", ""
}

// GetActionByKey returns just the action for a given key, or an empty Action if not found
func GetActionByKey(keyMsg tea.KeyMsg, name ContextName) Action {
	if bindings, exists := ContextBindings[name]; exists {
		key := keyMsg.String()
		for _, binding := range bindings {
			if binding.KeyMap.Primary == key || binding.KeyMap.Secondary == key {
				return binding.Action
			}
		}
	}
	return ""
}

// FormatKeyHelp formats a key binding for display in help text
func FormatKeyHelp(binding Binding) string {
	if binding.KeyMap.Secondary != "" {
		return binding.KeyMap.Primary + "/" + binding.KeyMap.Secondary + ": " + binding.KeyMap.Help
	}
	return binding.KeyMap.Primary + ": " + binding.KeyMap.Help
}

// GetHelpText generates formatted help text for a set of bindings
func GetHelpText(title string, bindings []Binding) string {
	helpText := "## " + title + "\n\n"
	for _, binding := range bindings {
		helpText += "* " + FormatKeyHelp(binding) + "\n"
	}
	return helpText
}

// withNavigation is a helper function to include navigation bindings in other binding sets
func withNavigation(bindings []Binding) []Binding {
	return append(append([]Binding{}, navigationBindings...), bindings...)
}
