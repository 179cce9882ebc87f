package cleanup

// Builtin returns the published catalog. Later releases only ever append.
func Builtin() Catalog {
	return append(Catalog(nil), builtin...)
}

// ExpectedDirs are the directories a release creates under the install
// root. They are pruned after cleanup once nothing is left in them.
func ExpectedDirs() []string {
	return append([]string(nil), expectedDirs...)
}

var expectedDirs = []string{
	"Mopy",
	"Mopy/bash",
	"Mopy/bash/compiled",
	"Mopy/bash/basher",
	"Mopy/bash/bosh",
	"Mopy/bash/brec",
	"Mopy/bash/game",
	"Mopy/bash/gui",
	"Mopy/bash/patcher",
	"Mopy/bash/patcher/patchers",
	"Mopy/bash/l10n",
	"Mopy/bash/images",
	"Mopy/Docs",
	"Mopy/templates",
	"Mopy/Apps",
	"Data/Docs",
	"Data/Bash Patches",
	"Data/INI Tweaks",
}

var builtin = Catalog{
	// --- v291: python 2.5 era loose modules ---
	{IntroducedIn: "v291", Target: "Mopy/Wrye Bash Launcher.pyw", Kind: FileDelete},
	{IntroducedIn: "v291", Target: "Mopy/Wrye Bash Debug.pyw", Kind: FileDelete},
	{IntroducedIn: "v291", Target: "Mopy/Wrye Bash.txt", Kind: FileDelete},
	{IntroducedIn: "v291", Target: "Mopy/Wrye Bash.html", Kind: FileDelete},
	{IntroducedIn: "v291", Target: "Mopy/bash/bashmon.py", Kind: FileDelete},
	{IntroducedIn: "v291", Target: "Mopy/bash/basher.py", Kind: FileDelete},
	{IntroducedIn: "v291", Target: "Mopy/bash/bosh.py", Kind: FileDelete},
	{IntroducedIn: "v291", Target: "Mopy/bash/settingsModule.py", Kind: FileDelete},
	{IntroducedIn: "v291", Target: "Mopy/bash", Kind: GlobDelete, Pattern: "*.pyc", Recursive: true},
	{IntroducedIn: "v291", Target: "Mopy/bash", Kind: GlobDelete, Pattern: "*.pyo", Recursive: true},

	// --- v292 ---
	{IntroducedIn: "v292", Target: "Mopy/Extras", Kind: DirectoryRecursiveDelete},
	{IntroducedIn: "v292", Target: "Data/Docs/Bashed Lists.txt", Kind: FileDelete},
	{IntroducedIn: "v292", Target: "Data/Docs/Bashed Lists.html", Kind: FileDelete},

	// --- v294: bundled runtime moves out of compiled ---
	{IntroducedIn: "v294", Target: "Mopy/bash/compiled/Microsoft.VC80.CRT", Kind: DirectoryRecursiveDelete},
	{IntroducedIn: "v294", Target: "Mopy/bash/compiled/boss32.dll", Kind: FileDelete},
	{IntroducedIn: "v294", Target: "Mopy/bash/compiled/boss64.dll", Kind: FileDelete},
	{IntroducedIn: "v294", Target: "Mopy/bash/compiled", Kind: GlobDelete, Pattern: "*.pyd"},

	// --- v296 ---
	{IntroducedIn: "v296", Target: "Mopy/bash/db", Kind: DirectoryRecursiveDelete},
	{IntroducedIn: "v296", Target: "Mopy/bash/images/stc", Kind: DirectoryRecursiveDelete},
	{IntroducedIn: "v296", Target: "Mopy/7zUnicode.exe", Kind: FileDelete},
	// Vista and newer ship the VC90 runtime side by side.
	{IntroducedIn: "v296", Target: "Mopy/bash/compiled/Microsoft.VC90.CRT/msvcr90.dll", Kind: ConditionalDelete, When: OSAtLeast(6, 0)},
	{IntroducedIn: "v296", Target: "Mopy/bash/compiled/Microsoft.VC90.CRT/Microsoft.VC90.CRT.manifest", Kind: ConditionalDelete, When: OSAtLeast(6, 0)},

	// --- v300: package split of basher and bosh ---
	{IntroducedIn: "v300", Target: "Mopy/bash/balt.py", Kind: FileDelete},
	{IntroducedIn: "v300", Target: "Mopy/bash/ScriptParser.py", Kind: FileDelete},
	{IntroducedIn: "v300", Target: "Mopy/Wrye Bash.exe.log", Kind: FileDelete},
	{IntroducedIn: "v300", Target: "Mopy/bash/compiled/lzma.exe", Kind: FileDelete},
	{IntroducedIn: "v300", Target: "Data/Bash Patches", Kind: GlobDelete, Pattern: "*.csv"},

	// --- v302 ---
	{IntroducedIn: "v302", Target: "Mopy/bash/game/oblivion.py", Kind: FileDelete},
	{IntroducedIn: "v302", Target: "Mopy/bash/game/skyrim.py", Kind: FileDelete},
	{IntroducedIn: "v302", Target: "Mopy/bash/game/fallout3.py", Kind: FileDelete},
	{IntroducedIn: "v302", Target: "Mopy/bash/game/falloutnv.py", Kind: FileDelete},
	{IntroducedIn: "v302", Target: "Mopy/bash/patcher/oblivion", Kind: DirectoryRecursiveDelete},

	// --- v303 ---
	{IntroducedIn: "v303", Target: "Mopy/bash/chardet", Kind: DirectoryRecursiveDelete},
	{IntroducedIn: "v303", Target: "Mopy/bash/compiled/7z.exe", Kind: FileDelete},
	{IntroducedIn: "v303", Target: "Mopy/bash/compiled/7z.dll", Kind: FileDelete},

	// --- v304 ---
	{IntroducedIn: "v304", Target: "Mopy/bash/images/tools", Kind: DirectoryRecursiveDelete},
	{IntroducedIn: "v304", Target: "Mopy/bash/l10n", Kind: GlobDelete, Pattern: "*.txt"},
	{IntroducedIn: "v304.4", Target: "Mopy/bash/windows.pyd", Kind: FileDelete},
	// Windows 8 and newer ship a compatible taskbar library.
	{IntroducedIn: "v304.4", Target: "Mopy/bash/compiled/taskbar.dll", Kind: ConditionalDelete, When: OSAtLeast(6, 2)},

	// --- v305 ---
	{IntroducedIn: "v305", Target: "Mopy/bash/compiled/loot_api.dll", Kind: FileDelete},
	{IntroducedIn: "v305", Target: "Mopy/bash/loot_api.pyd", Kind: FileDelete},

	// --- v306 ---
	{IntroducedIn: "v306", Target: "Mopy/Docs/Wrye Bash General Readme.html", Kind: FileDelete},
	{IntroducedIn: "v306", Target: "Mopy/Docs/Wrye Bash Advanced Readme.html", Kind: FileDelete},
	{IntroducedIn: "v306", Target: "Mopy/Docs/Wrye Bash Technical Readme.html", Kind: FileDelete},
	{IntroducedIn: "v306", Target: "Mopy/Docs/Wrye Bash Version History.html", Kind: FileDelete},

	// --- v307: current release layout ---
	{IntroducedIn: "v307", Target: "Mopy/Wrye Bash.exe", Kind: FileDelete},
	{IntroducedIn: "v307", Target: "Mopy/Wrye Bash.py", Kind: FileDelete},
	{IntroducedIn: "v307", Target: "Mopy/bash_default.ini", Kind: FileDelete},
	{IntroducedIn: "v307", Target: "Mopy/bash/compiled", Kind: DirectoryRecursiveDelete},
	{IntroducedIn: "v307", Target: "Mopy/bash/images", Kind: DirectoryRecursiveDelete},
	{IntroducedIn: "v307", Target: "Mopy/bash/l10n", Kind: DirectoryRecursiveDelete},
	{IntroducedIn: "v307", Target: "Mopy/bash", Kind: GlobDelete, Pattern: "*.py", Recursive: true},
	{IntroducedIn: "v307", Target: "Mopy/Docs", Kind: DirectoryRecursiveDelete},
	{IntroducedIn: "v307", Target: "Mopy/templates", Kind: DirectoryRecursiveDelete},
	{IntroducedIn: "v307", Target: "Mopy/Apps", Kind: DirectoryRecursiveDelete},
	{IntroducedIn: "v307", Target: "Data/Docs/Bashed Patch, 0.html", Kind: FileDelete},
	{IntroducedIn: "v307", Target: "Data/INI Tweaks", Kind: GlobDelete, Pattern: "*, ~Default.ini"},
}
