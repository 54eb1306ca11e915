/*
	Project: Darasa - https://darasa.cd (ref: https://classroom.google.com/)
	Target: École secondaires (Universities later..)
*/
package darasa

/*
TODO: grading: score stored responses against the answer key !!!
	- auto-grade once the quiz window closes (single-choice: exact match; multiple-choice: partial credit ???)
	- Teacher results view: per-quiz table + per-student breakdown
	- export results as CSV

TODO: membership:
	- leave-class (Student) + remove-student (Teacher)
	- admin: upload CSV to bulk enroll students ???
	- class codes: short join code instead of raw class ID (QR on the projector!!)

TODO: quiz taking:
	- countdown timer in FE; the server already closes the window
	- randomize question & option order per student OnInit
	- draft answers (resubmit replaces draft until the window ends ???) - conflicts with write-once!!
	- question banks: reuse questions across quizzes

TODO: API:
	- swagger !!
	- rate limiting on /auth/login & /auth/password-reset
	- pagination on list endpoints (fine while classes are small..)

FE: Material Design | PrimeVue | mixture etc..
	- Teacher Dashboard
	- Student Dashboard
	- avatar: https://github.com/JiriChara/vue-gravatar

------------------------------------ Version X ----------------------------------------
FIXME:Edge-case:
- Student in 2 classes taking overlapping quizzes ??? FE warning should do..
- Teacher deactivated: what happens to their classes ??? (transfer ownership cmd ???)

TODO: Communication
	- Announcements (scheduled) from Teacher: all Students of Class
	- Notifications: quiz scheduled | quiz open | results published
	- count badge

TODO: `Class`
	- copy new class for every school year:
		* archive previous year's class (readonly: viewable by related users)
		* copy quizzes (reset start dates)

TODO: Progressive Web App: for usage in low network areas !!!
*/
